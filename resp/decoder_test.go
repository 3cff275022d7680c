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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOne(t *testing.T, opt Options, wire string) Value {
	t.Helper()
	d := NewDecoder(opt)
	require.NoError(t, d.Feed([]byte(wire)))
	v, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok, "expected a complete value, got Insufficient")
	return v
}

func TestDecodeSimpleString(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "+OK\r\n")
	assert.Equal(t, KindSimpleString, v.Kind)
	assert.Equal(t, "OK", string(v.Bytes))
}

func TestDecodeSimpleError(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "-ERR unknown command\r\n")
	assert.Equal(t, KindSimpleError, v.Kind)
	assert.True(t, v.Kind.IsError())
	assert.Equal(t, "ERR unknown command", string(v.Bytes))
}

func TestDecodeInteger(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), ":1000\r\n")
	assert.Equal(t, int64(1000), v.Int)

	v = decodeOne(t, DefaultOptions(), ":-7\r\n")
	assert.Equal(t, int64(-7), v.Int)
}

func TestDecodeBulkString(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "$5\r\nhello\r\n")
	assert.Equal(t, "hello", string(v.Bytes))
	assert.False(t, v.Null)
}

func TestDecodeEmptyBulkString(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "$0\r\n\r\n")
	assert.Equal(t, "", string(v.Bytes))
	assert.False(t, v.Null)
}

func TestDecodeNullBulkString(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "$-1\r\n")
	assert.True(t, v.Null)
	assert.Equal(t, KindBulkString, v.Kind)
}

func TestDecodeBooleanRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "#t\r\n")
	assert.True(t, v.Bool)

	v = decodeOne(t, opt, "#f\r\n")
	assert.False(t, v.Bool)
}

func TestDecodeNullRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3
	v := decodeOne(t, opt, "_\r\n")
	assert.Equal(t, KindNull, v.Kind)
}

func TestDecodeDoubleRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, ",3.14\r\n")
	assert.InDelta(t, 3.14, v.Double, 1e-9)

	v = decodeOne(t, opt, ",inf\r\n")
	assert.True(t, math.IsInf(v.Double, 1))

	v = decodeOne(t, opt, ",-inf\r\n")
	assert.True(t, math.IsInf(v.Double, -1))

	v = decodeOne(t, opt, ",nan\r\n")
	assert.True(t, math.IsNaN(v.Double))
}

func TestDecodeBigNumberRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "(3492890328409238509324850943850943825024385\r\n")
	require.NotNil(t, v.Big)
	assert.Equal(t, "3492890328409238509324850943850943825024385", v.Big.String())
}

func TestDecodeVerbatimStringRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "=15\r\ntxt:Some string\r\n")
	assert.Equal(t, "txt", v.VerbatimTag)
	assert.Equal(t, "Some string", string(v.Bytes))
}

func TestDecodeBlobErrorRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "!21\r\nSYNTAX invalid syntax\r\n")
	assert.True(t, v.Kind.IsError())
	assert.Equal(t, "SYNTAX invalid syntax", string(v.Bytes))
}

func TestDecodeArray(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "*2\r\n$3\r\nfoo\r\n:1\r\n")
	require.Len(t, v.Items, 2)
	assert.Equal(t, "foo", string(v.Items[0].Bytes))
	assert.Equal(t, int64(1), v.Items[1].Int)
}

func TestDecodeNullArray(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "*-1\r\n")
	assert.True(t, v.Null)
	assert.Equal(t, KindArray, v.Kind)
}

func TestDecodeEmptyArray(t *testing.T) {
	v := decodeOne(t, DefaultOptions(), "*0\r\n")
	assert.False(t, v.Null)
	assert.Len(t, v.Items, 0)
}

func TestDecodeNestedArray(t *testing.T) {
	wire := "*2\r\n*2\r\n:1\r\n:2\r\n*1\r\n+nested\r\n"
	v := decodeOne(t, DefaultOptions(), wire)
	require.Len(t, v.Items, 2)
	require.Len(t, v.Items[0].Items, 2)
	assert.Equal(t, int64(1), v.Items[0].Items[0].Int)
	assert.Equal(t, int64(2), v.Items[0].Items[1].Int)
	require.Len(t, v.Items[1].Items, 1)
	assert.Equal(t, "nested", string(v.Items[1].Items[0].Bytes))
}

func TestDecodeMapRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "%2\r\n+k1\r\n:1\r\n+k2\r\n:2\r\n")
	require.Len(t, v.Pairs, 2)
	assert.Equal(t, "k1", string(v.Pairs[0].Key.Bytes))
	assert.Equal(t, int64(1), v.Pairs[0].Value.Int)
}

func TestDecodeMapDictForMapRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3
	opt.DictForMap = true

	v := decodeOne(t, opt, "%2\r\n+k1\r\n:1\r\n+k2\r\n:2\r\n")
	assert.Nil(t, v.Pairs)
	require.Len(t, v.Dict, 2)
	assert.Equal(t, int64(1), v.Dict["k1"].Int)
	assert.Equal(t, int64(2), v.Dict["k2"].Int)
}

func TestDecodeAttributeIgnoresDictForMapRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3
	opt.DictForMap = true

	v := decodeOne(t, opt, "|1\r\n+k1\r\n:1\r\n")
	require.Len(t, v.Pairs, 1)
	assert.Nil(t, v.Dict)
}

func TestDecodeSetRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, "~3\r\n:1\r\n:2\r\n:3\r\n")
	require.Len(t, v.Items, 3)
}

func TestDecodePushRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	v := decodeOne(t, opt, ">4\r\n+pubsub\r\n+message\r\n+chan\r\n+payload\r\n")
	require.Len(t, v.Items, 4)
	assert.Equal(t, "pubsub", string(v.Items[0].Bytes))
}

func TestDecodeAttributeRESP3(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 3

	d := NewDecoder(opt)
	require.NoError(t, d.Feed([]byte("|1\r\n+ttl\r\n:100\r\n+actual-value\r\n")))

	attr, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindAttribute, attr.Kind)
	require.Len(t, attr.Pairs, 1)
	assert.Equal(t, "ttl", string(attr.Pairs[0].Key.Bytes))

	val, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "actual-value", string(val.Bytes))
}

func TestFeedSplitAcrossMultipleCalls(t *testing.T) {
	d := NewDecoder(DefaultOptions())

	require.NoError(t, d.Feed([]byte("*2\r\n$3\r\nfo")))
	_, ok, err := d.NextValue()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Feed([]byte("o\r\n")))
	_, ok, err = d.NextValue()
	require.NoError(t, err)
	assert.False(t, ok, "second array element still missing")

	require.NoError(t, d.Feed([]byte(":9\r\n")))
	v, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "foo", string(v.Items[0].Bytes))
	assert.Equal(t, int64(9), v.Items[1].Int)
}

func TestFeedByteAtATime(t *testing.T) {
	wire := "*1\r\n$5\r\nhello\r\n"
	d := NewDecoder(DefaultOptions())

	for i := 0; i < len(wire)-1; i++ {
		require.NoError(t, d.Feed([]byte{wire[i]}))
		_, ok, err := d.NextValue()
		require.NoError(t, err)
		assert.False(t, ok)
	}
	require.NoError(t, d.Feed([]byte{wire[len(wire)-1]}))
	v, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "hello", string(v.Items[0].Bytes))
}

func TestDecodeMalformedStartByte(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	err := d.Feed([]byte("@nope\r\n"))
	assert.Error(t, err)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestDecodeRESP3TypeUnderRESP2Rejected(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	err := d.Feed([]byte("#t\r\n"))
	assert.Error(t, err)
}

func TestDecodeMalformedInteger(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	err := d.Feed([]byte(":not-a-number\r\n"))
	assert.Error(t, err)
}

func TestDecodeTwoValuesInOneFeed(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	require.NoError(t, d.Feed([]byte("+first\r\n+second\r\n")))

	v1, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", string(v1.Bytes))

	v2, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(v2.Bytes))

	_, ok, err = d.NextValue()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	require.NoError(t, d.Feed([]byte("*2\r\n:1\r\n")))
	_, ok, err := d.NextValue()
	require.NoError(t, err)
	assert.False(t, ok)

	d.Reset()
	assert.Equal(t, 0, d.buf.Len())
	assert.Len(t, d.events, 0)

	require.NoError(t, d.Feed([]byte("+OK\r\n")))
	v, ok, err := d.NextValue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "OK", string(v.Bytes))
}

func TestDecoderHasStableIdentity(t *testing.T) {
	d := NewDecoder(DefaultOptions())
	assert.NotEqual(t, d.ID.String(), NewDecoder(DefaultOptions()).ID.String())

	id := d.ID
	d.Reset()
	assert.Equal(t, id, d.ID)
}

func TestFeedRejectsInvalidOptionsWithoutConsuming(t *testing.T) {
	opt := DefaultOptions()
	opt.RespVersion = 4
	d := NewDecoder(opt)
	err := d.Feed([]byte("+OK\r\n"))
	assert.Error(t, err)
	assert.Equal(t, 0, d.buf.Len())
}
