// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

const (
	// App is the module's program name, used in logging and CLI usage text.
	App = "respcat"

	// Version is the program version reported by --version.
	Version = "v0.0.1"

	// FeedChunkSize is the default chunk size respcat uses when streaming
	// a file or stdin into a Decoder, so a single oversized input can't
	// force one giant Buffer.Append.
	FeedChunkSize = 4096
)
