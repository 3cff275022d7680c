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

import "bytes"

// crlf is the wire-mandated line terminator. RESP never accepts a bare LF.
var crlf = []byte("\r\n")

// Buffer is an append-only-at-tail, consume-from-head byte queue.
//
// It is the single mutable piece of state a Decoder owns. Append copies the
// bytes it is handed into the buffer's backing array; bytes handed back by
// ReadLine/Read are copies, since the backing array may be compacted or
// grown by a later Append.
//
// Buffer is not safe for concurrent use; an instance has a single owner,
// same as Decoder.
type Buffer struct {
	r, w int
	b    []byte
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds p to the tail of the queue. It never fails and never blocks.
func (buf *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}

	// compact before growing so long-lived connections don't retain an
	// ever-growing backing array behind a small unconsumed tail
	if buf.r > 0 && buf.r == buf.w {
		buf.r, buf.w = 0, 0
		buf.b = buf.b[:0]
	} else if buf.r > 0 && cap(buf.b)-buf.w < len(p) {
		copy(buf.b, buf.b[buf.r:buf.w])
		buf.w -= buf.r
		buf.r = 0
		buf.b = buf.b[:buf.w]
	}

	buf.b = append(buf.b, p...)
	buf.w += len(p)
}

// ReadLine removes and returns the prefix up to (not including) the next
// CRLF, also consuming the CRLF itself. ok is false if no CRLF is present
// yet, in which case the buffer is left untouched.
func (buf *Buffer) ReadLine() (line []byte, ok bool) {
	idx := bytes.Index(buf.b[buf.r:buf.w], crlf)
	if idx == -1 {
		return nil, false
	}

	line = cloneBytes(buf.b[buf.r : buf.r+idx])
	buf.r += idx + len(crlf)
	return line, true
}

// Read removes and returns the first n bytes. ok is false if fewer than n
// bytes are currently buffered, in which case the buffer is left untouched.
func (buf *Buffer) Read(n int) (p []byte, ok bool) {
	if n < 0 {
		return nil, false
	}
	if buf.w-buf.r < n {
		return nil, false
	}

	p = cloneBytes(buf.b[buf.r : buf.r+n])
	buf.r += n
	return p, true
}

// PeekFirstByte returns the first unconsumed byte without removing it.
// ok is false if the buffer is empty.
func (buf *Buffer) PeekFirstByte() (c byte, ok bool) {
	if buf.w == buf.r {
		return 0, false
	}
	return buf.b[buf.r], true
}

// Len reports the number of unconsumed bytes.
func (buf *Buffer) Len() int {
	return buf.w - buf.r
}

// Clear discards all buffered bytes.
func (buf *Buffer) Clear() {
	buf.r, buf.w = 0, 0
	buf.b = buf.b[:0]
}

func cloneBytes(p []byte) []byte {
	if len(p) == 0 {
		return []byte{}
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
