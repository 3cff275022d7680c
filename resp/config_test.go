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

package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptionsValid(t *testing.T) {
	opt := DefaultOptions()
	assert.NoError(t, opt.Validate())
	assert.Equal(t, 2, opt.RespVersion)
	assert.Equal(t, "utf-8", opt.Encoding)
	assert.Equal(t, ErrorsStrict, opt.Errors)
	assert.False(t, opt.DictForMap)
	assert.False(t, opt.FlattenAggregatesInRESP2)
}

func TestOptionsValidateRejectsBadVersion(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 4
	assert.Error(t, opt.Validate())
}

func TestOptionsValidateRejectsBadErrorPolicy(t *testing.T) {
	opt := DefaultOptions()
	opt.Errors = ErrorPolicy("explode")
	assert.Error(t, opt.Validate())
}

func TestOptionsValidateAcceptsRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3
	assert.NoError(t, opt.Validate())
}
