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

import "math/big"

// Kind tags the variant a Value holds. It mirrors the RESP2/RESP3 type byte
// set one-for-one; see the wire framing table in SPEC_FULL.md §4.3.1.
type Kind byte

const (
	KindSimpleString Kind = iota
	KindSimpleError
	KindInteger
	KindBulkString
	KindArray
	KindNull
	KindDouble
	KindBoolean
	KindBigNumber
	KindBlobError
	KindVerbatimString
	KindMap
	KindSet
	KindAttribute
	KindPush
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "SimpleString"
	case KindSimpleError:
		return "SimpleError"
	case KindInteger:
		return "Integer"
	case KindBulkString:
		return "BulkString"
	case KindArray:
		return "Array"
	case KindNull:
		return "Null"
	case KindDouble:
		return "Double"
	case KindBoolean:
		return "Boolean"
	case KindBigNumber:
		return "BigNumber"
	case KindBlobError:
		return "BlobError"
	case KindVerbatimString:
		return "VerbatimString"
	case KindMap:
		return "Map"
	case KindSet:
		return "Set"
	case KindAttribute:
		return "Attribute"
	case KindPush:
		return "Push"
	default:
		return "Unknown"
	}
}

// IsError reports whether the variant is a protocol-level reply error
// (SimpleError or BlobError), as opposed to a ProtocolError raised by the
// decoder itself. Reply errors are ordinary Values; see SPEC_FULL.md §7.
func (k Kind) IsError() bool {
	return k == KindSimpleError || k == KindBlobError
}

func (k Kind) isAggregate() bool {
	switch k {
	case KindArray, KindMap, KindSet, KindAttribute, KindPush:
		return true
	default:
		return false
	}
}

// Pair is one (key, value) entry of a Map or Attribute.
type Pair struct {
	Key   Value
	Value Value
}

// Value is the tagged union of every RESP2/RESP3 wire value. Only the fields
// relevant to Kind are meaningful; see the accessor methods in convert.go
// for the sanctioned way to read them.
type Value struct {
	Kind Kind

	// Bytes holds the payload for SimpleString, SimpleError, BulkString,
	// BlobError, and the payload portion (sans the 3-byte type tag) of
	// VerbatimString.
	Bytes []byte

	// Null is true for a null BulkString ($-1), null Array (*-1), or
	// null Push. Bytes/Items are meaningless when Null is true.
	Null bool

	// Int holds the decimal value of an Integer frame.
	Int int64

	// Big holds the arbitrary-precision value of a BigNumber frame.
	Big *big.Int

	// Double holds the value of a Double frame (may be ±Inf or NaN).
	Double float64

	// Bool holds the value of a Boolean frame.
	Bool bool

	// VerbatimTag holds the 3-character type tag of a VerbatimString
	// frame (e.g. "txt", "mkd").
	VerbatimTag string

	// Items holds the ordered children of an Array, Set, or Push.
	Items []Value

	// Pairs holds the ordered (key, value) children of a Map or
	// Attribute.
	Pairs []Pair

	// Dict holds a Map's children keyed by decoded text instead of as
	// ordered Pairs. Only populated when Options.DictForMap is true at
	// decode time; Pairs is left nil in that case. Attribute never uses
	// this shape, since it is metadata rather than application data.
	Dict map[string]Value
}

// pairs returns a Map or Attribute's children as an ordered []Pair,
// whichever storage (Pairs or Dict) decode populated. Dict iteration order
// is Go's randomized map order, which is fine for encoding (RESP places no
// ordering requirement on Map children) but means two encodings of the same
// Dict-shaped Value are not byte-identical.
func (v Value) pairs() []Pair {
	if v.Dict == nil {
		return v.Pairs
	}
	out := make([]Pair, 0, len(v.Dict))
	for k, item := range v.Dict {
		out = append(out, Pair{Key: Value{Kind: KindBulkString, Bytes: []byte(k)}, Value: item})
	}
	return out
}

// Null-valued convenience constructors, matching the wire frames that admit
// a negative length (§3, §4.3.1).

// NullBulkString returns the null BulkString value ($-1\r\n).
func NullBulkString() Value { return Value{Kind: KindBulkString, Null: true} }

// NullArray returns the null Array value (*-1\r\n).
func NullArray() Value { return Value{Kind: KindArray, Null: true} }

// NullPush returns the null Push value (an out-of-band RESP2-legacy null,
// kept for symmetry with Array; RESP servers do not emit this in practice).
func NullPush() Value { return Value{Kind: KindPush, Null: true} }
