// Package market implements the marketplace program: marketplace
// initialization, the two listing modes, delisting, and buy settlement.
package market

import (
	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/entry"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// marketplaceKeylet locates a marketplace record by its derived address.
func marketplaceKeylet(key [32]byte) pda.Keylet {
	return pda.Keylet{Type: entry.TypeMarketplace, Key: key}
}

// vaultKeylet locates a custodial vault token account by its derived
// address recorded on the listing.
func vaultKeylet(key [32]byte) pda.Keylet {
	return pda.Keylet{Type: entry.TypeTokenAccount, Key: key}
}

// readMarketplace reads a marketplace record by its derived address.
func readMarketplace(view state.LedgerView, key [32]byte) (*state.MarketplaceData, tx.Result) {
	data, err := view.Read(marketplaceKeylet(key))
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecNOT_FOUND
	}
	m, err := state.ParseMarketplace(data)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	return m, tx.TesSUCCESS
}

// readListing reads a listing record at its keylet.
func readListing(view state.LedgerView, k pda.Keylet) (*state.ListingData, tx.Result) {
	data, err := view.Read(k)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecNOT_FOUND
	}
	l, err := state.ParseListing(data)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	return l, tx.TesSUCCESS
}

// readMetadata reads an asset's metadata and enforces the marketplace's
// collection-verification requirement. A listed asset must belong to a
// verified collection; anything less is indistinguishable from a forgery.
func readMetadata(view state.LedgerView, mint address.Address) (*state.MetadataData, tx.Result) {
	data, err := view.Read(pda.Metadata(mint))
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecINVALID_METADATA
	}
	m, err := state.ParseMetadata(data)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if m.Collection == nil || !m.Collection.Verified {
		return nil, tx.TecINVALID_METADATA
	}
	return m, tx.TesSUCCESS
}
