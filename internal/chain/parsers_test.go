package chain

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stackItem(t *testing.T, typ string, value interface{}) StackItem {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return StackItem{Type: typ, Value: raw}
}

func TestParseHash160(t *testing.T) {
	// Little-endian GAS hash bytes, base64-encoded as nodes return them.
	le := []byte{
		0xcf, 0x76, 0xe2, 0x8b, 0xd0, 0x06, 0x2c, 0x4a, 0x47, 0x8e,
		0xe3, 0x55, 0x61, 0x01, 0x13, 0x19, 0xf3, 0xcf, 0xa4, 0xd2,
	}
	item := stackItem(t, "ByteString", base64.StdEncoding.EncodeToString(le))

	hash, err := ParseHash160(item)
	require.NoError(t, err)
	assert.Equal(t, "0xd2a4cff31913016155e38e474a2c06d08be276cf", hash)
}

func TestParseHash160WrongType(t *testing.T) {
	_, err := ParseHash160(stackItem(t, "Integer", "42"))
	assert.Error(t, err)
}

func TestParseInteger(t *testing.T) {
	n, err := ParseInteger(stackItem(t, "Integer", "123456789012345678901234567890"))
	require.NoError(t, err)

	want, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Zero(t, n.Cmp(want))
}

func TestParseIntegerMalformed(t *testing.T) {
	_, err := ParseInteger(stackItem(t, "Integer", "not-a-number"))
	assert.Error(t, err)

	_, err = ParseInteger(stackItem(t, "ByteString", "MTA="))
	assert.Error(t, err)
}

func TestParseBoolean(t *testing.T) {
	v, err := ParseBoolean(stackItem(t, "Boolean", true))
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ParseBoolean(stackItem(t, "Boolean", false))
	require.NoError(t, err)
	assert.False(t, v)
}

func TestParseBooleanRejectsAmbiguousTypes(t *testing.T) {
	// Non-boolean results must never be coerced into success.
	for _, item := range []StackItem{
		stackItem(t, "Integer", "1"),
		stackItem(t, "ByteString", "AQ=="),
		stackItem(t, "Any", nil),
	} {
		_, err := ParseBoolean(item)
		assert.Error(t, err, "type %s", item.Type)
	}
}

func TestParseByteArray(t *testing.T) {
	raw, err := ParseByteArray(stackItem(t, "ByteString", base64.StdEncoding.EncodeToString([]byte("hello"))))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	raw, err = ParseByteArray(stackItem(t, "Null", nil))
	require.NoError(t, err)
	assert.Nil(t, raw)
}
