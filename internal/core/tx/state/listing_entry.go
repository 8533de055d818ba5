package state

import "github.com/solmint/marketd/internal/codec/address"

// EscrowMode selects how a listing holds the asset for its duration.
type EscrowMode uint8

const (
	// ModeCustodial moves the asset into a vault owned by the listing
	// authority until the listing closes.
	ModeCustodial EscrowMode = 1

	// ModeDelegated leaves the asset in the seller's token account but
	// grants the listing authority an exclusive transfer delegation and
	// freezes the account.
	ModeDelegated EscrowMode = 2
)

// String returns the mode name used in RPC responses.
func (m EscrowMode) String() string {
	switch m {
	case ModeCustodial:
		return "custodial"
	case ModeDelegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// ListingData is an active listing record. Exactly one exists per
// (marketplace, mint) pair; it is erased on delist or buy.
type ListingData struct {
	Marketplace [32]byte        `codec:"marketplace"`
	Seller      address.Address `codec:"seller"`
	Mint        address.Address `codec:"mint"`

	// Price is in the smallest native unit and is always > 0.
	Price uint64 `codec:"price"`

	Mode EscrowMode `codec:"mode"`

	// Vault is the custodial vault key. Zero for delegated listings.
	Vault [32]byte `codec:"vault"`

	// DelegatedAmount is the quantity covered by the delegation.
	// Zero for custodial listings.
	DelegatedAmount uint64 `codec:"delegated_amount"`

	Bump      uint8 `codec:"bump"`
	VaultBump uint8 `codec:"vault_bump"`
}

// ParseListing parses a listing entry.
func ParseListing(data []byte) (*ListingData, error) {
	l := &ListingData{}
	if err := unmarshal(data, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SerializeListing serializes a listing entry.
func SerializeListing(l *ListingData) ([]byte, error) {
	return marshal(l)
}
