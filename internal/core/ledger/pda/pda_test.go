package pda_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/codec/address"
	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/core/ledger/entry"
	"github.com/solmint/marketd/internal/core/ledger/pda"
)

func addr(name string) address.Address {
	return address.Address(crypto.Sha512Half([]byte(name)))
}

func TestDerivationDeterministic(t *testing.T) {
	admin := addr("admin")
	mint := addr("mint")

	k1, b1 := pda.Marketplace(admin, "main")
	k2, b2 := pda.Marketplace(admin, "main")
	require.Equal(t, k1, k2)
	require.Equal(t, b1, b2)

	l1, _ := pda.Listing(k1.Key, mint)
	l2, _ := pda.Listing(k1.Key, mint)
	require.Equal(t, l1, l2)
}

func TestDerivationDistinct(t *testing.T) {
	admin := addr("admin")
	other := addr("other")

	k1, _ := pda.Marketplace(admin, "main")
	k2, _ := pda.Marketplace(admin, "second")
	k3, _ := pda.Marketplace(other, "main")
	require.NotEqual(t, k1.Key, k2.Key)
	require.NotEqual(t, k1.Key, k3.Key)

	// Different seed spaces never collide even over the same seeds.
	mint := addr("mint")
	listing, _ := pda.Listing(k1.Key, mint)
	token := pda.TokenAccount(address.Address(k1.Key), mint)
	require.NotEqual(t, listing.Key, token.Key)
}

func TestKeyletTypes(t *testing.T) {
	admin := addr("admin")
	mint := addr("mint")

	require.Equal(t, entry.TypeAccountRoot, pda.Account(admin).Type)

	mp, _ := pda.Marketplace(admin, "main")
	require.Equal(t, entry.TypeMarketplace, mp.Type)

	listing, _ := pda.Listing(mp.Key, mint)
	require.Equal(t, entry.TypeListing, listing.Type)

	vault, _ := pda.ListingVault(listing.Key)
	require.Equal(t, entry.TypeTokenAccount, vault.Type)

	require.Equal(t, entry.TypeTokenAccount, pda.TokenAccount(admin, mint).Type)
	require.Equal(t, entry.TypeMetadata, pda.Metadata(mint).Type)
}

func TestDerivedAuthoritiesOffCurve(t *testing.T) {
	// Derived authorities must never carry the signing-key bit.
	admin := addr("admin")
	mp, _ := pda.Marketplace(admin, "main")
	require.Zero(t, mp.Key[0]&0x80)

	feeVault, _ := pda.FeeVault(mp.Key)
	require.Zero(t, feeVault[0]&0x80)

	listing, _ := pda.Listing(mp.Key, addr("mint"))
	require.Zero(t, listing.Key[0]&0x80)

	vault, _ := pda.ListingVault(listing.Key)
	require.Zero(t, vault.Key[0]&0x80)
}

func TestFeeVaultBoundToMarketplace(t *testing.T) {
	admin := addr("admin")
	mp1, _ := pda.Marketplace(admin, "main")
	mp2, _ := pda.Marketplace(admin, "second")

	v1, _ := pda.FeeVault(mp1.Key)
	v2, _ := pda.FeeVault(mp2.Key)
	require.NotEqual(t, v1, v2)
}
