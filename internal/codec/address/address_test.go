package address_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/codec/address"
)

func TestRoundtrip(t *testing.T) {
	var a address.Address
	for i := range a {
		a[i] = byte(i + 1)
	}

	encoded := address.Encode(a)
	require.NotEmpty(t, encoded)

	decoded, err := address.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, a, decoded)
	require.Equal(t, encoded, a.String())
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"too short", "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := address.Decode(tc.text)
			require.ErrorIs(t, err, address.ErrInvalidAddress)
		})
	}
}

func TestIsZero(t *testing.T) {
	require.True(t, address.Zero.IsZero())
	require.True(t, address.Address{}.IsZero())

	var a address.Address
	a[31] = 1
	require.False(t, a.IsZero())
}
