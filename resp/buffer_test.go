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
	"github.com/stretchr/testify/require"
)

func TestBufferReadLine(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+OK\r\n"))

	line, ok := buf.ReadLine()
	require.True(t, ok)
	assert.Equal(t, []byte("+OK"), line)
	assert.Equal(t, 0, buf.Len())
}

func TestBufferReadLineInsufficient(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+OK"))

	_, ok := buf.ReadLine()
	assert.False(t, ok)
	assert.Equal(t, 3, buf.Len())
}

func TestBufferSplitAcrossAppends(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+O"))
	_, ok := buf.ReadLine()
	assert.False(t, ok)

	buf.Append([]byte("K\r\n"))
	line, ok := buf.ReadLine()
	require.True(t, ok)
	assert.Equal(t, []byte("+OK"), line)
}

func TestBufferReadN(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("hello\r\n"))

	p, ok := buf.Read(5)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), p)

	p, ok = buf.Read(2)
	require.True(t, ok)
	assert.Equal(t, []byte("\r\n"), p)
}

func TestBufferReadNInsufficient(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("ab"))

	_, ok := buf.Read(5)
	assert.False(t, ok)
	assert.Equal(t, 2, buf.Len())
}

func TestBufferPeekFirstByte(t *testing.T) {
	buf := NewBuffer()
	_, ok := buf.PeekFirstByte()
	assert.False(t, ok)

	buf.Append([]byte("*2\r\n"))
	c, ok := buf.PeekFirstByte()
	require.True(t, ok)
	assert.Equal(t, byte('*'), c)
}

func TestBufferClear(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+OK\r\n"))
	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	_, ok := buf.PeekFirstByte()
	assert.False(t, ok)
}

func TestBufferCompactsAfterFullyConsumed(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+OK\r\n"))
	_, ok := buf.ReadLine()
	require.True(t, ok)

	// a fresh Append after the buffer drains to empty should reuse the
	// backing array from offset zero rather than growing forever.
	buf.Append([]byte("+PONG\r\n"))
	assert.Equal(t, 0, buf.r)
	line, ok := buf.ReadLine()
	require.True(t, ok)
	assert.Equal(t, []byte("+PONG"), line)
}

func TestBufferReadLineReturnsCopy(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]byte("+OK\r\n"))
	line, ok := buf.ReadLine()
	require.True(t, ok)

	buf.Append([]byte("+PONG\r\n"))
	// mutating buf internals via further Append must not retroactively
	// change a line already handed back to the caller
	assert.Equal(t, []byte("+OK"), line)
}
