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
	"fmt"

	"github.com/pkg/errors"
)

// ProtocolError reports that the fed byte stream is not valid RESP. It is
// fatal to the stream: the only supported recovery is Decoder.Reset.
// Encode and EncodeAny also return one when a value has no wire form under
// the configured RespVersion.
//
// Matches protocol/predis/decoder.go's newError helper in spirit: every
// ProtocolError is constructed through github.com/pkg/errors so a stack
// trace travels with it for diagnostic logging above the core.
type ProtocolError struct {
	// Offset is the Decoder's running count of consumed bytes when this
	// error was raised; depending on the check, that count may already
	// include the offending frame's length line. Errors found while
	// validating a leaf's payload (Integer, Double, BigNumber, Null,
	// Boolean, VerbatimString) and errors from the encoder carry 0. It
	// is a diagnostic aid, not a precise byte index of the offending
	// character.
	Offset int64
	msg    string
	cause  error
}

func newProtocolError(offset int64, format string, args ...any) *ProtocolError {
	msg := fmt.Sprintf(format, args...)
	return &ProtocolError{
		Offset: offset,
		msg:    msg,
		cause:  errors.Errorf("resp/decoder: %s (offset=%d)", msg, offset),
	}
}

func (e *ProtocolError) Error() string { return e.cause.Error() }
func (e *ProtocolError) Unwrap() error { return e.cause }

// ReplyError is a server-side error value reported inside valid framing
// (SimpleError "-" or BlobError "!"). It is a Value, not a parser failure;
// whether a caller treats it as a Go error or an ordinary Value is a
// binding choice left to that caller. ReplyError implements error so a
// caller that does want exception semantics can simply return it as one.
type ReplyError struct {
	Blob bool
	Text string
}

func (e *ReplyError) Error() string { return e.Text }

// AsReplyError converts a SimpleError or BlobError Value into a *ReplyError.
// It panics if v is not an error-kind Value; callers should check Kind.IsError
// first, exactly as they must check Null before reading Bytes.
func AsReplyError(v Value) *ReplyError {
	if !v.Kind.IsError() {
		panic(errors.Errorf("resp: AsReplyError called on non-error Value (%s)", v.Kind))
	}
	return &ReplyError{Blob: v.Kind == KindBlobError, Text: string(v.Bytes)}
}
