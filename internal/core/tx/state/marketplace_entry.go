package state

import "github.com/solmint/marketd/internal/codec/address"

// MaxMarketplaceNameLength bounds the human-readable marketplace name.
const MaxMarketplaceNameLength = 32

// MarketplaceData is a marketplace registry record. It is created once by
// its admin and is immutable afterwards.
type MarketplaceData struct {
	Admin address.Address `codec:"admin"`
	Name  string          `codec:"name"`

	// FeeBps is the marketplace fee rate in basis points, always < 10000.
	FeeBps uint16 `codec:"fee_bps"`

	// FeeVault is the derived address of the account collecting fees.
	FeeVault address.Address `codec:"fee_vault"`

	Bump         uint8 `codec:"bump"`
	FeeVaultBump uint8 `codec:"fee_vault_bump"`
}

// ParseMarketplace parses a marketplace entry.
func ParseMarketplace(data []byte) (*MarketplaceData, error) {
	m := &MarketplaceData{}
	if err := unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SerializeMarketplace serializes a marketplace entry.
func SerializeMarketplace(m *MarketplaceData) ([]byte, error) {
	return marshal(m)
}
