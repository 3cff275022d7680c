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
	"bytes"
	"math"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/valyala/bytebufferpool"
)

// Encode serializes v to wire bytes under opt. It fails when opt itself does
// not pass Options.Validate, when a RESP3-only Kind is encoded under
// RespVersion 2 with no flatten escape hatch (a *ProtocolError), when a
// Simple frame's payload contains a CR or LF byte, or when a
// VerbatimString's tag is not exactly 3 bytes.
func Encode(v Value, opt Options) ([]byte, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := v.encodeInto(buf, opt); err != nil {
		return nil, err
	}
	out := make([]byte, len(buf.B))
	copy(out, buf.B)
	return out, nil
}

func (v Value) encodeInto(buf *bytebufferpool.ByteBuffer, opt Options) error {
	if opt.RespVersion == 2 && isRESP3Only(v.Kind) {
		if flattened, ok := v.flattenForRESP2(opt); ok {
			return flattened.encodeInto(buf, opt)
		}
		return newProtocolError(0, "Kind %s cannot be encoded under RespVersion=2", v.Kind)
	}

	switch v.Kind {
	case KindSimpleString:
		return writeSimple(buf, byteSimpleString, v.Bytes)
	case KindSimpleError:
		return writeSimple(buf, byteSimpleError, v.Bytes)
	case KindInteger:
		_ = buf.WriteByte(byteInteger)
		_, _ = buf.WriteString(strconv.FormatInt(v.Int, 10))
		_, _ = buf.Write(crlf)
		return nil
	case KindBulkString:
		return writeLengthPrefixed(buf, byteBulkString, v.Null, v.Bytes)
	case KindBlobError:
		return writeLengthPrefixed(buf, byteBlobError, false, v.Bytes)
	case KindVerbatimString:
		if len(v.VerbatimTag) != 3 {
			return errors.Errorf("resp: VerbatimString tag must be 3 bytes, got %q", v.VerbatimTag)
		}
		payload := make([]byte, 0, 4+len(v.Bytes))
		payload = append(payload, v.VerbatimTag...)
		payload = append(payload, ':')
		payload = append(payload, v.Bytes...)
		return writeLengthPrefixed(buf, byteVerbatimString, false, payload)
	case KindArray, KindPush:
		startByte := byteArray
		if v.Kind == KindPush {
			startByte = bytePush
		}
		if v.Null {
			_ = buf.WriteByte(startByte)
			_, _ = buf.WriteString("-1")
			_, _ = buf.Write(crlf)
			return nil
		}
		_ = buf.WriteByte(startByte)
		_, _ = buf.WriteString(strconv.Itoa(len(v.Items)))
		_, _ = buf.Write(crlf)
		for _, item := range v.Items {
			if err := item.encodeInto(buf, opt); err != nil {
				return err
			}
		}
		return nil
	case KindNull:
		_ = buf.WriteByte(byteNull)
		_, _ = buf.Write(crlf)
		return nil
	case KindDouble:
		_ = buf.WriteByte(byteDouble)
		_, _ = buf.WriteString(formatDouble(v.Double))
		_, _ = buf.Write(crlf)
		return nil
	case KindBoolean:
		_ = buf.WriteByte(byteBoolean)
		if v.Bool {
			_ = buf.WriteByte('t')
		} else {
			_ = buf.WriteByte('f')
		}
		_, _ = buf.Write(crlf)
		return nil
	case KindBigNumber:
		if v.Big == nil {
			v.Big = new(big.Int)
		}
		_ = buf.WriteByte(byteBigNumber)
		_, _ = buf.WriteString(v.Big.String())
		_, _ = buf.Write(crlf)
		return nil
	case KindSet:
		_ = buf.WriteByte(byteSet)
		_, _ = buf.WriteString(strconv.Itoa(len(v.Items)))
		_, _ = buf.Write(crlf)
		for _, item := range v.Items {
			if err := item.encodeInto(buf, opt); err != nil {
				return err
			}
		}
		return nil
	case KindMap, KindAttribute:
		startByte := byteMap
		if v.Kind == KindAttribute {
			startByte = byteAttribute
		}
		pairs := v.pairs()
		_ = buf.WriteByte(startByte)
		_, _ = buf.WriteString(strconv.Itoa(len(pairs)))
		_, _ = buf.Write(crlf)
		for _, p := range pairs {
			if err := p.Key.encodeInto(buf, opt); err != nil {
				return err
			}
			if err := p.Value.encodeInto(buf, opt); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("resp: encodeInto: unhandled kind %s", v.Kind)
	}
}

// flattenForRESP2 implements Options.FlattenAggregatesInRESP2: a Map
// flattens to an Array of alternating key/value elements, a Set flattens
// to a plain Array of its members. Attribute and Push have no RESP2
// fallback regardless of the flag, since they carry protocol semantics
// (out-of-band push, reply metadata) a RESP2 peer can't interpret safely.
func (v Value) flattenForRESP2(opt Options) (Value, bool) {
	if !opt.FlattenAggregatesInRESP2 {
		return Value{}, false
	}
	switch v.Kind {
	case KindMap:
		pairs := v.pairs()
		items := make([]Value, 0, len(pairs)*2)
		for _, p := range pairs {
			items = append(items, p.Key, p.Value)
		}
		return Value{Kind: KindArray, Items: items}, true
	case KindSet:
		return Value{Kind: KindArray, Items: v.Items}, true
	default:
		return Value{}, false
	}
}

func writeSimple(buf *bytebufferpool.ByteBuffer, startByte byte, payload []byte) error {
	if bytes.ContainsAny(payload, "\r\n") {
		return errors.Errorf("resp: simple frame payload must not contain CR or LF")
	}
	_ = buf.WriteByte(startByte)
	_, _ = buf.Write(payload)
	_, _ = buf.Write(crlf)
	return nil
}

func writeLengthPrefixed(buf *bytebufferpool.ByteBuffer, startByte byte, null bool, payload []byte) error {
	_ = buf.WriteByte(startByte)
	if null {
		_, _ = buf.WriteString("-1")
		_, _ = buf.Write(crlf)
		return nil
	}
	_, _ = buf.WriteString(strconv.Itoa(len(payload)))
	_, _ = buf.Write(crlf)
	_, _ = buf.Write(payload)
	_, _ = buf.Write(crlf)
	return nil
}

func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// EncodeAny builds a Value from a plain Go value via a type switch plus
// coercion (github.com/spf13/cast) and encodes it, the Go equivalent of
// the reference sioresp implementation's pack_element generic dispatch:
// strings and []byte become BulkString; integers become Integer under
// RESP2 and BigNumber under RESP3; floats become a SimpleString of their
// decimal text under RESP2 and Double under RESP3; bool becomes Boolean
// under RESP3 and is a ProtocolError under RESP2; nil becomes the null
// BulkString under RESP2 and Null under RESP3; []any becomes Array; and
// map[string]any/map[any]any become Map (subject to the same RESP2
// constraints as Encode). Slices of any other element type are not
// recognised as Arrays: like any other unlisted type they go through
// cast.ToStringE and fail unless cast can render them as a string. A
// Value passed in is encoded as-is.
func EncodeAny(val any, opt Options) ([]byte, error) {
	v, err := toValue(val, opt)
	if err != nil {
		return nil, err
	}
	return Encode(v, opt)
}

func toValue(val any, opt Options) (Value, error) {
	switch t := val.(type) {
	case Value:
		return t, nil
	case nil:
		if opt.RespVersion == 2 {
			return NullBulkString(), nil
		}
		return Value{Kind: KindNull, Null: true}, nil
	case []byte:
		return Value{Kind: KindBulkString, Bytes: t}, nil
	case string:
		return Value{Kind: KindBulkString, Bytes: []byte(t)}, nil
	case bool:
		if opt.RespVersion == 2 {
			return Value{}, newProtocolError(0, "EncodeAny: boolean has no RESP2 wire representation")
		}
		return Value{Kind: KindBoolean, Bool: t}, nil
	case *big.Int:
		if opt.RespVersion == 2 {
			if !t.IsInt64() {
				return Value{}, errors.Errorf("resp: EncodeAny: %s overflows RESP2 Integer", t.String())
			}
			return Value{Kind: KindInteger, Int: t.Int64()}, nil
		}
		return Value{Kind: KindBigNumber, Big: t}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(t)
		if err != nil {
			return Value{}, errors.Wrap(err, "resp: EncodeAny integer coercion")
		}
		if opt.RespVersion == 2 {
			return Value{Kind: KindInteger, Int: n}, nil
		}
		return Value{Kind: KindBigNumber, Big: big.NewInt(n)}, nil
	case float32, float64:
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return Value{}, errors.Wrap(err, "resp: EncodeAny float coercion")
		}
		if opt.RespVersion == 2 {
			return Value{Kind: KindSimpleString, Bytes: []byte(formatDouble(f))}, nil
		}
		return Value{Kind: KindDouble, Double: f}, nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := toValue(e, opt)
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return Value{Kind: KindArray, Items: items}, nil
	case map[string]any:
		pairs := make([]Pair, 0, len(t))
		for k, e := range t {
			item, err := toValue(e, opt)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: Value{Kind: KindBulkString, Bytes: []byte(k)}, Value: item})
		}
		return Value{Kind: KindMap, Pairs: pairs}, nil
	case map[any]any:
		pairs := make([]Pair, 0, len(t))
		for k, e := range t {
			key, err := toValue(k, opt)
			if err != nil {
				return Value{}, err
			}
			item, err := toValue(e, opt)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: key, Value: item})
		}
		return Value{Kind: KindMap, Pairs: pairs}, nil
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return Value{}, errors.Wrapf(err, "resp: EncodeAny: cannot coerce %T", val)
		}
		return Value{Kind: KindBulkString, Bytes: []byte(s)}, nil
	}
}

// SendCommand encodes args as a single RESP Array of BulkStrings, the
// conventional client-to-server request framing and the Go counterpart of
// the reference implementation's send_command shortcut: callers building a
// command invocation never need to construct the Array Value by hand. A
// single argument, scalar or aggregate, is encoded directly rather than
// wrapped in a one-element Array (mirrors sioresp.Connection.send_command,
// which calls pack_element(cmd[0]) whenever len(cmd) == 1).
func SendCommand(opt Options, args ...any) ([]byte, error) {
	if len(args) == 1 {
		return EncodeAny(args[0], opt)
	}
	return sendCommandArgs(opt, args)
}

func sendCommandArgs(opt Options, args []any) ([]byte, error) {
	items := make([]Value, len(args))
	for i, a := range args {
		s, err := cast.ToStringE(a)
		if err != nil {
			return nil, errors.Wrapf(err, "resp: SendCommand: argument %d", i)
		}
		items[i] = Value{Kind: KindBulkString, Bytes: []byte(s)}
	}
	return Encode(Value{Kind: KindArray, Items: items}, opt)
}
