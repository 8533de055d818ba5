package testing

import (
	"github.com/solmint/marketd/internal/codec/address"
	crypto "github.com/solmint/marketd/internal/crypto/common"
)

// Account represents a test account. Accounts are derived deterministically
// from their name, so the same name always produces the same address and
// tests stay reproducible.
type Account struct {
	// Name is a human-readable identifier for the account.
	Name string

	// Addr is the raw 32-byte account address.
	Addr address.Address

	// Address is the base58-encoded form of Addr.
	Address string
}

// NewAccount creates a test account with an address derived from the name.
func NewAccount(name string) *Account {
	addr := address.Address(crypto.Sha512Half([]byte("test-account"), []byte(name)))
	return &Account{
		Name:    name,
		Addr:    addr,
		Address: address.Encode(addr),
	}
}

// MasterAccount returns the account funded at genesis, from which every
// other test account is funded.
func MasterAccount() *Account {
	return NewAccount("master")
}
