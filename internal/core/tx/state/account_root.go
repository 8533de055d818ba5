package state

import "github.com/solmint/marketd/internal/codec/address"

// AccountRootData holds an account's native balance. Fee vaults are plain
// account roots living at a program-derived address.
type AccountRootData struct {
	Account address.Address `codec:"account"`
	Balance uint64          `codec:"balance"`

	// OwnerCount tracks how many ledger objects the account owns
	// (listings, token accounts created on its behalf).
	OwnerCount uint32 `codec:"owner_count"`
}

// ParseAccountRoot parses an account root entry.
func ParseAccountRoot(data []byte) (*AccountRootData, error) {
	a := &AccountRootData{}
	if err := unmarshal(data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SerializeAccountRoot serializes an account root entry.
func SerializeAccountRoot(a *AccountRootData) ([]byte, error) {
	return marshal(a)
}
