package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewfinderco/viewfinder-sub006/core"
)

func TestMarshalUnmarshalLexiconEntry(t *testing.T) {
	tests := []struct {
		name     string
		tokenID  core.TokenID
		hitCount int64
	}{
		{"zero entry", 0, 0},
		{"small values", 7, 3},
		{"large token id", 1 << 40, 12345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalLexiconEntry(tt.tokenID, tt.hitCount)
			require.NotEmpty(t, data)

			tokenID, hitCount, err := UnmarshalLexiconEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.tokenID, tokenID)
			assert.Equal(t, tt.hitCount, hitCount)
		})
	}
}

func TestUnmarshalLexiconEntry_Invalid(t *testing.T) {
	_, _, err := UnmarshalLexiconEntry(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	// Valid token id but missing hit count.
	data := MarshalCounter(42)
	_, _, err = UnmarshalLexiconEntry(data)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalCounter(t *testing.T) {
	for _, next := range []int64{0, 1, 255, 1 << 50} {
		data := MarshalCounter(next)
		decoded, err := UnmarshalCounter(data)
		require.NoError(t, err)
		assert.Equal(t, next, decoded)
	}
}

func TestMarshalUnmarshalStoredKeys(t *testing.T) {
	tests := []struct {
		name string
		keys core.StoredKeys
	}{
		{"empty list", core.StoredKeys{}},
		{"single key", core.StoredKeys{[]byte("ft:t:i:abc")}},
		{
			"multiple keys with binary content",
			core.StoredKeys{
				[]byte{0xff, 0x00, 0x01},
				[]byte("ft:contacts:i:key"),
				{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalStoredKeys(tt.keys)
			decoded, err := UnmarshalStoredKeys(data)
			require.NoError(t, err)
			require.Len(t, decoded, len(tt.keys))
			for i := range tt.keys {
				assert.Equal(t, []byte(tt.keys[i]), []byte(decoded[i]))
			}
		})
	}
}

func TestUnmarshalStoredKeys_Truncated(t *testing.T) {
	data := MarshalStoredKeys(core.StoredKeys{[]byte("some-posting-key")})
	_, err := UnmarshalStoredKeys(data[:len(data)-4])
	require.Error(t, err)
}
