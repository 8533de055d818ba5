package state

import "github.com/solmint/marketd/internal/codec/address"

// TokenAccountData holds a token balance for one (owner, mint) pair.
// A listing's custodial vault is a token account whose owner field carries
// the listing's derived key instead of a user address.
type TokenAccountData struct {
	Mint  address.Address `codec:"mint"`
	Owner address.Address `codec:"owner"`

	Amount uint64 `codec:"amount"`

	// Delegate, when set, is the derived authority allowed to move up to
	// DelegatedAmount out of this account. At most one delegate exists.
	Delegate        *[32]byte `codec:"delegate,omitempty"`
	DelegatedAmount uint64    `codec:"delegated_amount"`

	// Frozen blocks every transfer out of the account except those made by
	// the delegate through the program.
	Frozen bool `codec:"frozen"`
}

// ParseTokenAccount parses a token account entry.
func ParseTokenAccount(data []byte) (*TokenAccountData, error) {
	ta := &TokenAccountData{}
	if err := unmarshal(data, ta); err != nil {
		return nil, err
	}
	return ta, nil
}

// SerializeTokenAccount serializes a token account entry.
func SerializeTokenAccount(ta *TokenAccountData) ([]byte, error) {
	return marshal(ta)
}
