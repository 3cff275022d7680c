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

import "github.com/pkg/errors"

// ErrorPolicy controls what happens when a text conversion encounters a
// byte sequence that isn't valid under Options.Encoding.
type ErrorPolicy string

const (
	// ErrorsStrict fails the conversion outright.
	ErrorsStrict ErrorPolicy = "strict"
	// ErrorsReplace substitutes the Unicode replacement character for
	// each invalid sequence.
	ErrorsReplace ErrorPolicy = "replace"
	// ErrorsIgnore drops invalid sequences silently.
	ErrorsIgnore ErrorPolicy = "ignore"
)

// Options configures both Decoder and Encoder. Matches SPEC_FULL.md §6.
type Options struct {
	// RespVersion selects the protocol dialect: 2 or 3. It gates which
	// RESP3-only type bytes the Decoder accepts and which Value kinds
	// the Encoder is willing to produce.
	RespVersion int

	// Encoding names the text encoding used when converting text Values
	// to/from host strings. Only "utf-8" is implemented; see DESIGN.md
	// for why no third-party transcoding library is wired in here.
	Encoding string

	// Errors is the policy applied when a text conversion encounters an
	// invalid byte sequence under Encoding.
	Errors ErrorPolicy

	// DictForMap selects Map's decoded Go shape: true decodes to
	// Value.Dict, a map[string]Value keyed by each key's Text (a key
	// that is not text is a ProtocolError), false (the default) decodes
	// to an ordered []Pair in Value.Pairs. See SPEC_FULL.md §9's note on
	// map keys.
	DictForMap bool

	// FlattenAggregatesInRESP2 is the opt-in escape hatch for encoding a
	// Go map or set under RESP2, which has no native Map/Set frame. When
	// true, a map flattens to an Array of alternating key/value
	// elements and a set flattens to a plain Array; both are lossy
	// (a decoder cannot tell the result apart from an ordinary Array).
	// Default false: RESP2 encoding of a map or set is a ProtocolError.
	FlattenAggregatesInRESP2 bool
}

// DefaultOptions returns the conservative default: RESP2, UTF-8, strict
// error handling, ordered-pairs maps, no lossy RESP2 flattening.
func DefaultOptions() Options {
	return Options{
		RespVersion: 2,
		Encoding:    "utf-8",
		Errors:      ErrorsStrict,
		DictForMap:  false,
	}
}

// Validate reports whether o is a usable configuration, checking the
// fields Decoder and Encoder both rely on (RespVersion, Errors). NewDecoder
// and Encode both call this themselves; callers that build Options from an
// external source (a config file, CLI flags) should call it too, so a bad
// value is rejected at load time instead of at first use.
func (o Options) Validate() error {
	if o.RespVersion != 2 && o.RespVersion != 3 {
		return errors.Errorf("resp: unsupported RespVersion %d (want 2 or 3)", o.RespVersion)
	}
	switch o.Errors {
	case ErrorsStrict, ErrorsReplace, ErrorsIgnore, "":
	default:
		return errors.Errorf("resp: unsupported error policy %q", o.Errors)
	}
	return nil
}
