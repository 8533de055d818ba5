// Package entry defines the ledger entry types stored in marketd's state.
package entry

// Type identifies the kind of ledger entry stored at a state key.
type Type uint16

const (
	// TypeAccountRoot holds an account's native balance.
	TypeAccountRoot Type = iota + 1

	// TypeMarketplace is a marketplace registry record.
	TypeMarketplace

	// TypeListing is an active listing record.
	TypeListing

	// TypeTokenAccount holds a token balance for one (owner, mint) pair.
	TypeTokenAccount

	// TypeMetadata holds an asset's creator list and royalty policy.
	TypeMetadata
)

// String returns the entry type name used in RPC responses.
func (t Type) String() string {
	switch t {
	case TypeAccountRoot:
		return "AccountRoot"
	case TypeMarketplace:
		return "Marketplace"
	case TypeListing:
		return "Listing"
	case TypeTokenAccount:
		return "TokenAccount"
	case TypeMetadata:
		return "Metadata"
	default:
		return "Unknown"
	}
}
