package state

import "github.com/solmint/marketd/internal/codec/address"

// Creator is one entry in an asset's creator list. Share is a percentage
// of the royalty pool; only verified creators are trusted at settlement.
type Creator struct {
	Address  address.Address `codec:"address"`
	Verified bool            `codec:"verified"`
	Share    uint8           `codec:"share"`
}

// Collection records the collection an asset belongs to and whether that
// membership has been verified by the collection authority.
type Collection struct {
	Key      address.Address `codec:"key"`
	Verified bool            `codec:"verified"`
}

// MetadataData holds an asset's royalty policy as written by the external
// metadata-issuing service. marketd only ever reads these entries.
type MetadataData struct {
	Mint address.Address `codec:"mint"`

	// SellerFeeBps is the asset royalty in basis points (10000 = 100%).
	SellerFeeBps uint16 `codec:"seller_fee_bps"`

	Creators []Creator `codec:"creators"`

	Collection *Collection `codec:"collection,omitempty"`
}

// ParseMetadata parses a metadata entry.
func ParseMetadata(data []byte) (*MetadataData, error) {
	m := &MetadataData{}
	if err := unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SerializeMetadata serializes a metadata entry.
func SerializeMetadata(m *MetadataData) ([]byte, error) {
	return marshal(m)
}
