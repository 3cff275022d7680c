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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueText(t *testing.T) {
	opt := DefaultOptions()
	v := Value{Kind: KindBulkString, Bytes: []byte("hello")}
	s, err := v.Text(opt)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	null := NullBulkString()
	s, err = null.Text(opt)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestValueTextInvalidUTF8Strict(t *testing.T) {
	opt := DefaultOptions()
	v := Value{Kind: KindBulkString, Bytes: []byte{0xff, 0xfe}}
	_, err := v.Text(opt)
	assert.Error(t, err)
}

func TestValueTextInvalidUTF8Replace(t *testing.T) {
	opt := DefaultOptions()
	opt.Errors = ErrorsReplace
	v := Value{Kind: KindBulkString, Bytes: []byte{0xff}}
	s, err := v.Text(opt)
	require.NoError(t, err)
	assert.Contains(t, s, "�")
}

func TestValueTextInvalidUTF8Ignore(t *testing.T) {
	opt := DefaultOptions()
	opt.Errors = ErrorsIgnore
	v := Value{Kind: KindBulkString, Bytes: append([]byte("ab"), 0xff)}
	s, err := v.Text(opt)
	require.NoError(t, err)
	assert.Equal(t, "ab", s)
}

func TestValueTextWrongKind(t *testing.T) {
	opt := DefaultOptions()
	_, err := Value{Kind: KindInteger, Int: 1}.Text(opt)
	assert.Error(t, err)
}

func TestValueInt64(t *testing.T) {
	v := Value{Kind: KindInteger, Int: 42}
	n, err := v.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	big42 := Value{Kind: KindBigNumber, Big: big.NewInt(42)}
	n, err = big42.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestValueInt64BigNumberOverflows(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	v := Value{Kind: KindBigNumber, Big: huge}
	_, err := v.Int64()
	assert.Error(t, err)
}

func TestValueFloat64AndBool(t *testing.T) {
	f, err := Value{Kind: KindDouble, Double: 3.14}.Float64()
	require.NoError(t, err)
	assert.Equal(t, 3.14, f)

	b, err := Value{Kind: KindBoolean, Bool: true}.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestValueDigestStableAcrossEqualValues(t *testing.T) {
	a := Value{Kind: KindArray, Items: []Value{
		{Kind: KindBulkString, Bytes: []byte("x")},
		{Kind: KindInteger, Int: 7},
	}}
	b := Value{Kind: KindArray, Items: []Value{
		{Kind: KindBulkString, Bytes: []byte("x")},
		{Kind: KindInteger, Int: 7},
	}}
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestValueDigestDiffersOnContent(t *testing.T) {
	a := Value{Kind: KindBulkString, Bytes: []byte("x")}
	b := Value{Kind: KindBulkString, Bytes: []byte("y")}
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestValueDigestDictMatchesEquivalentPairs(t *testing.T) {
	dict := Value{Kind: KindMap, Dict: map[string]Value{
		"name": {Kind: KindBulkString, Bytes: []byte("redis")},
		"port": {Kind: KindInteger, Int: 6379},
	}}
	pairs := Value{Kind: KindMap, Pairs: []Pair{
		{Key: Value{Kind: KindBulkString, Bytes: []byte("name")}, Value: Value{Kind: KindBulkString, Bytes: []byte("redis")}},
		{Key: Value{Kind: KindBulkString, Bytes: []byte("port")}, Value: Value{Kind: KindInteger, Int: 6379}},
	}}
	assert.Equal(t, pairs.Digest(), dict.Digest())
}

func TestValueScanMap(t *testing.T) {
	v := Value{Kind: KindMap, Pairs: []Pair{
		{Key: Value{Kind: KindBulkString, Bytes: []byte("name")}, Value: Value{Kind: KindBulkString, Bytes: []byte("redis")}},
		{Key: Value{Kind: KindBulkString, Bytes: []byte("port")}, Value: Value{Kind: KindInteger, Int: 6379}},
	}}

	var dst struct {
		Name string `resp:"name"`
		Port int    `resp:"port"`
	}
	require.NoError(t, v.ScanMap(DefaultOptions(), &dst))
	assert.Equal(t, "redis", dst.Name)
	assert.Equal(t, 6379, dst.Port)
}

func TestValueScanMapDictShape(t *testing.T) {
	v := Value{Kind: KindMap, Dict: map[string]Value{
		"name": {Kind: KindBulkString, Bytes: []byte("redis")},
		"port": {Kind: KindInteger, Int: 6379},
	}}

	var dst struct {
		Name string `resp:"name"`
		Port int    `resp:"port"`
	}
	require.NoError(t, v.ScanMap(DefaultOptions(), &dst))
	assert.Equal(t, "redis", dst.Name)
	assert.Equal(t, 6379, dst.Port)
}

func TestValueScanMapWrongKind(t *testing.T) {
	var dst map[string]any
	err := Value{Kind: KindArray}.ScanMap(DefaultOptions(), &dst)
	assert.Error(t, err)
}
