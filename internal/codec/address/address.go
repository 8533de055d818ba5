// Package address implements the text encoding of marketd account
// identifiers. An address is a 32-byte value rendered in base58, the way
// wallets display it. Program-derived addresses share the same space but
// never correspond to a signing key.
package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Address is a 32-byte account identifier.
type Address [32]byte

// Zero is the all-zero address. It is never a valid account.
var Zero Address

// ErrInvalidAddress is returned when decoding malformed address text.
var ErrInvalidAddress = errors.New("invalid address")

// Encode returns the base58 text form of an address.
func Encode(a Address) string {
	return base58.Encode(a[:])
}

// Decode parses the base58 text form of an address.
func Decode(s string) (Address, error) {
	var a Address
	if s == "" {
		return a, ErrInvalidAddress
	}
	raw := base58.Decode(s)
	if len(raw) != 32 {
		return a, fmt.Errorf("%w: decoded to %d bytes, want 32", ErrInvalidAddress, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return Encode(a)
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Zero
}
