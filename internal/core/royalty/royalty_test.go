package royalty_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/codec/address"
	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/core/royalty"
	"github.com/solmint/marketd/internal/core/tx/state"
)

func creatorAddr(name string) address.Address {
	return address.Address(crypto.Sha512Half([]byte(name)))
}

func TestComputeStandardSale(t *testing.T) {
	c1 := creatorAddr("creator1")
	c2 := creatorAddr("creator2")
	meta := &state.MetadataData{
		SellerFeeBps: 100,
		Creators: []state.Creator{
			{Address: c1, Share: 50, Verified: true},
			{Address: c2, Share: 50, Verified: true},
		},
	}

	dist, err := royalty.Compute(1_000_000_000, 500, meta)
	require.NoError(t, err)

	require.Equal(t, uint64(50_000_000), dist.MarketplaceFee)
	require.Equal(t, uint64(10_000_000), dist.RoyaltyPool)
	require.Equal(t, uint64(940_000_000), dist.SellerProceeds)
	require.Len(t, dist.Creators, 2)
	require.Equal(t, royalty.CreatorPayout{Creator: c1, Amount: 5_000_000}, dist.Creators[0])
	require.Equal(t, royalty.CreatorPayout{Creator: c2, Amount: 5_000_000}, dist.Creators[1])
}

func TestComputeTruncation(t *testing.T) {
	// 333 * 100 / 10000 = 3.33 truncates to 3; the pool splits 1/1 with
	// one unit left unassigned.
	meta := &state.MetadataData{
		SellerFeeBps: 100,
		Creators: []state.Creator{
			{Address: creatorAddr("a"), Share: 50, Verified: true},
			{Address: creatorAddr("b"), Share: 50, Verified: true},
		},
	}
	dist, err := royalty.Compute(333, 0, meta)
	require.NoError(t, err)
	require.Equal(t, uint64(3), dist.RoyaltyPool)
	require.Equal(t, uint64(330), dist.SellerProceeds)
	require.Len(t, dist.Creators, 2)
	require.Equal(t, uint64(1), dist.Creators[0].Amount)
	require.Equal(t, uint64(1), dist.Creators[1].Amount)

	// Total disbursed never exceeds the price.
	total := dist.SellerProceeds + dist.MarketplaceFee
	for _, c := range dist.Creators {
		total += c.Amount
	}
	require.LessOrEqual(t, total, uint64(333))
}

func TestComputeNoCreators(t *testing.T) {
	dist, err := royalty.Compute(1_000_000, 250, &state.MetadataData{SellerFeeBps: 0})
	require.NoError(t, err)
	require.Equal(t, uint64(25_000), dist.MarketplaceFee)
	require.Equal(t, uint64(0), dist.RoyaltyPool)
	require.Equal(t, uint64(975_000), dist.SellerProceeds)
	require.Empty(t, dist.Creators)
}

func TestComputeUnverifiedCreatorsDropped(t *testing.T) {
	verified := creatorAddr("verified")
	meta := &state.MetadataData{
		SellerFeeBps: 200,
		Creators: []state.Creator{
			{Address: verified, Share: 40, Verified: true},
			{Address: creatorAddr("unverified"), Share: 60, Verified: false},
		},
	}
	dist, err := royalty.Compute(1_000_000, 0, meta)
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), dist.RoyaltyPool)
	require.Len(t, dist.Creators, 1)
	require.Equal(t, verified, dist.Creators[0].Creator)
	require.Equal(t, uint64(8_000), dist.Creators[0].Amount)
}

func TestComputeZeroShareDropped(t *testing.T) {
	// A tiny pool rounds a small share down to zero; no payout demanded.
	meta := &state.MetadataData{
		SellerFeeBps: 1,
		Creators: []state.Creator{
			{Address: creatorAddr("a"), Share: 1, Verified: true},
			{Address: creatorAddr("b"), Share: 99, Verified: true},
		},
	}
	dist, err := royalty.Compute(50_000, 0, meta)
	require.NoError(t, err)
	require.Equal(t, uint64(5), dist.RoyaltyPool)
	require.Len(t, dist.Creators, 1)
	require.Equal(t, creatorAddr("b"), dist.Creators[0].Creator)
	require.Equal(t, uint64(4), dist.Creators[0].Amount)
}

func TestComputeInvalidShares(t *testing.T) {
	tests := []struct {
		name     string
		creators []state.Creator
	}{
		{"under 100", []state.Creator{{Address: creatorAddr("a"), Share: 60, Verified: true}}},
		{"over 100", []state.Creator{
			{Address: creatorAddr("a"), Share: 60, Verified: true},
			{Address: creatorAddr("b"), Share: 60, Verified: true},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := &state.MetadataData{SellerFeeBps: 100, Creators: tc.creators}
			_, err := royalty.Compute(1_000_000, 500, meta)
			require.ErrorIs(t, err, royalty.ErrInvalidMetadata)
		})
	}
}

func TestComputeNilMetadata(t *testing.T) {
	_, err := royalty.Compute(1_000_000, 500, nil)
	require.ErrorIs(t, err, royalty.ErrInvalidMetadata)
}

func TestComputeArithmeticRange(t *testing.T) {
	// price * feeBps overflows uint64.
	meta := &state.MetadataData{SellerFeeBps: 0}
	_, err := royalty.Compute(math.MaxUint64, 9999, meta)
	require.ErrorIs(t, err, royalty.ErrArithmeticRange)
}

func TestComputeZeroPrice(t *testing.T) {
	dist, err := royalty.Compute(0, 500, &state.MetadataData{SellerFeeBps: 100})
	require.NoError(t, err)
	require.Equal(t, uint64(0), dist.MarketplaceFee)
	require.Equal(t, uint64(0), dist.SellerProceeds)
}
