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
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

// Text converts a SimpleString, SimpleError, BulkString, VerbatimString, or
// BlobError Value to a host string under the given options' encoding and
// error policy. It is total on well-formed values; malformed UTF-8 is
// handled per opt.Errors rather than panicking.
//
// Converters are documented as a call-site choice (SPEC_FULL.md §4.2): the
// Decoder itself never validates payload text, only framing.
func (v Value) Text(opt Options) (string, error) {
	switch v.Kind {
	case KindSimpleString, KindSimpleError, KindBulkString, KindVerbatimString, KindBlobError:
	default:
		return "", errors.Errorf("resp: Text called on non-text Value (%s)", v.Kind)
	}
	if v.Null {
		return "", nil
	}
	return decodeText(v.Bytes, opt)
}

func decodeText(b []byte, opt Options) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	switch opt.Errors {
	case ErrorsStrict, "":
		return "", errors.Errorf("resp: invalid UTF-8 sequence in text value")
	case ErrorsIgnore:
		var sb strings.Builder
		for len(b) > 0 {
			r, size := utf8.DecodeRune(b)
			if r != utf8.RuneError || size != 1 {
				sb.WriteRune(r)
			}
			b = b[size:]
		}
		return sb.String(), nil
	case ErrorsReplace:
		var sb strings.Builder
		for len(b) > 0 {
			r, size := utf8.DecodeRune(b)
			sb.WriteRune(r)
			b = b[size:]
		}
		return sb.String(), nil
	default:
		return "", errors.Errorf("resp: unsupported error policy %q", opt.Errors)
	}
}

// Int64 converts an Integer or BigNumber Value to an int64. BigNumber
// conversion fails with an error (rather than silently truncating) if the
// value overflows int64 — use Value.Big directly for arbitrary precision.
func (v Value) Int64() (int64, error) {
	switch v.Kind {
	case KindInteger:
		return v.Int, nil
	case KindBigNumber:
		if !v.Big.IsInt64() {
			return 0, errors.Errorf("resp: BigNumber %s overflows int64", v.Big.String())
		}
		return v.Big.Int64(), nil
	default:
		return 0, errors.Errorf("resp: Int64 called on non-integer Value (%s)", v.Kind)
	}
}

// Float64 converts a Double Value to float64, preserving ±Inf and NaN.
func (v Value) Float64() (float64, error) {
	if v.Kind != KindDouble {
		return 0, errors.Errorf("resp: Float64 called on non-Double Value (%s)", v.Kind)
	}
	return v.Double, nil
}

// AsBool converts a Boolean Value to bool.
func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBoolean {
		return false, errors.Errorf("resp: AsBool called on non-Boolean Value (%s)", v.Kind)
	}
	return v.Bool, nil
}

// Digest returns a structural xxhash fingerprint of v, stable across equal
// values regardless of Go map-iteration order inside Dict. It exists so a
// decoded Set (whose members are not necessarily Go-hashable, since a
// member may itself be an aggregate) can still be de-duplicated into a
// host slice without requiring comparable members.
//
// The hashing scheme mirrors internal/labels.Labels.Hash in the teacher
// repository: build a delimited byte representation in a pooled buffer,
// then take a single xxhash.Sum64 over it.
func (v Value) Digest() uint64 {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	v.writeDigest(buf)
	return xxhash.Sum64(buf.Bytes())
}

var digestSep = []byte{0xff}

func (v Value) writeDigest(buf *bytebufferpool.ByteBuffer) {
	_ = buf.WriteByte(byte(v.Kind))
	_, _ = buf.Write(digestSep)
	switch v.Kind {
	case KindSimpleString, KindSimpleError, KindBulkString, KindBlobError:
		if v.Null {
			_, _ = buf.WriteString("null")
		} else {
			_, _ = buf.Write(v.Bytes)
		}
	case KindVerbatimString:
		_, _ = buf.WriteString(v.VerbatimTag)
		_, _ = buf.Write(digestSep)
		_, _ = buf.Write(v.Bytes)
	case KindInteger:
		_, _ = buf.WriteString(strconv.FormatInt(v.Int, 10))
	case KindBigNumber:
		_, _ = buf.WriteString(v.Big.String())
	case KindDouble:
		_, _ = buf.WriteString(strconv.FormatFloat(v.Double, 'g', -1, 64))
	case KindBoolean:
		if v.Bool {
			_, _ = buf.WriteByte('t')
		} else {
			_, _ = buf.WriteByte('f')
		}
	case KindNull:
		_, _ = buf.WriteString("null")
	case KindArray, KindSet, KindPush:
		if v.Null {
			_, _ = buf.WriteString("null")
			break
		}
		for _, item := range v.Items {
			item.writeDigest(buf)
			_, _ = buf.Write(digestSep)
		}
	case KindMap, KindAttribute:
		if v.Dict != nil {
			keys := make([]string, 0, len(v.Dict))
			for k := range v.Dict {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				key := Value{Kind: KindBulkString, Bytes: []byte(k)}
				key.writeDigest(buf)
				_, _ = buf.Write(digestSep)
				v.Dict[k].writeDigest(buf)
				_, _ = buf.Write(digestSep)
			}
			break
		}
		for _, p := range v.Pairs {
			p.Key.writeDigest(buf)
			_, _ = buf.Write(digestSep)
			p.Value.writeDigest(buf)
			_, _ = buf.Write(digestSep)
		}
	}
}

// ScanMap decodes a Map (or Attribute) Value into dst, a pointer to a Go
// struct or map, via github.com/mitchellh/mapstructure. Keys are converted
// to strings first (mapstructure's normal decoding path), so this is only
// appropriate for maps whose keys are text-like, same restriction
// Options.DictForMap's dict form already carries.
func (v Value) ScanMap(opt Options, dst any) error {
	if v.Kind != KindMap && v.Kind != KindAttribute {
		return errors.Errorf("resp: ScanMap called on non-Map Value (%s)", v.Kind)
	}

	var raw map[string]any
	if v.Dict != nil {
		raw = make(map[string]any, len(v.Dict))
		for k, item := range v.Dict {
			raw[k] = item.native(opt)
		}
	} else {
		raw = make(map[string]any, len(v.Pairs))
		for _, p := range v.Pairs {
			k, err := p.Key.Text(opt)
			if err != nil {
				return errors.Wrap(err, "resp: ScanMap key")
			}
			raw[k] = p.Value.native(opt)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "resp",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Native returns a best-effort plain Go value (string, int64, float64,
// bool, []any, map[string]any, nil), suitable for json.Marshal or any
// other caller that wants an untyped tree instead of walking Kind itself.
func (v Value) Native(opt Options) any {
	return v.native(opt)
}

// native is Native's unexported recursive worker, also used internally by
// ScanMap to build mapstructure's decode input.
func (v Value) native(opt Options) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindSimpleString, KindSimpleError, KindBulkString, KindVerbatimString, KindBlobError:
		if v.Null {
			return nil
		}
		s, err := v.Text(opt)
		if err != nil {
			return string(v.Bytes)
		}
		return s
	case KindInteger:
		return v.Int
	case KindBigNumber:
		return v.Big.String()
	case KindDouble:
		return v.Double
	case KindBoolean:
		return v.Bool
	case KindArray, KindSet, KindPush:
		if v.Null {
			return nil
		}
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.native(opt)
		}
		return out
	case KindMap, KindAttribute:
		if v.Dict != nil {
			out := make(map[string]any, len(v.Dict))
			for k, item := range v.Dict {
				out[k] = item.native(opt)
			}
			return out
		}
		out := make(map[string]any, len(v.Pairs))
		for _, p := range v.Pairs {
			k, err := p.Key.Text(opt)
			if err != nil {
				k = string(p.Key.Bytes)
			}
			out[k] = p.Value.native(opt)
		}
		return out
	default:
		return nil
	}
}
