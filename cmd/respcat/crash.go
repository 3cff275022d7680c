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

package main

import "github.com/packetd/resp/internal/rescue"

// rescueOnCrash logs and counts an otherwise-fatal panic before the process
// exits, rather than dumping a bare Go stack trace to a piped stdout. It is
// rescue.HandleCrash itself, not a wrapper around it, so that a deferred
// rescueOnCrash() calls recover directly from the deferred function.
var rescueOnCrash = rescue.HandleCrash
