// Package royalty resolves the payment shares a purchase must satisfy:
// the marketplace fee, each verified creator's royalty, and the seller
// proceeds. The resolver is pure; it reads nothing but its arguments.
package royalty

import (
	"errors"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// BpsDenominator converts basis points to a fraction (10000 = 100%).
const BpsDenominator = 10000

var (
	// ErrInvalidMetadata is returned when the creator shares do not sum to
	// 100 or a required collection verification is missing.
	ErrInvalidMetadata = errors.New("invalid metadata")

	// ErrArithmeticRange is returned when the fee and royalty pool exceed
	// the price.
	ErrArithmeticRange = errors.New("arithmetic range")
)

// CreatorPayout is one required creator payment.
type CreatorPayout struct {
	Creator address.Address
	Amount  uint64
}

// Distribution is the full set of payments a purchase must carry.
// All arithmetic truncates; remainders are never redistributed, so the
// total disbursed may fall short of the price by a few smallest units but
// never exceeds it.
type Distribution struct {
	MarketplaceFee uint64
	RoyaltyPool    uint64
	Creators       []CreatorPayout
	SellerProceeds uint64
}

// Compute resolves the distribution for a sale at the given price under a
// marketplace fee rate and an asset's metadata.
//
// Creator shares, verified or not, must sum to exactly 100. Unverified
// creators are then dropped from the required payment set: their address
// cannot be trusted, so demanding payment to it would let a forged
// metadata entry redirect royalties. The undemanded share simply stays
// with the buyer.
func Compute(price uint64, feeBps uint16, meta *state.MetadataData) (*Distribution, error) {
	if meta == nil {
		return nil, ErrInvalidMetadata
	}
	if len(meta.Creators) > 0 {
		total := 0
		for _, c := range meta.Creators {
			total += int(c.Share)
		}
		if total != 100 {
			return nil, ErrInvalidMetadata
		}
	}

	fee, ok := mulDiv(price, uint64(feeBps), BpsDenominator)
	if !ok {
		return nil, ErrArithmeticRange
	}
	pool, ok := mulDiv(price, uint64(meta.SellerFeeBps), BpsDenominator)
	if !ok {
		return nil, ErrArithmeticRange
	}
	if fee+pool < fee || fee+pool > price {
		return nil, ErrArithmeticRange
	}

	dist := &Distribution{
		MarketplaceFee: fee,
		RoyaltyPool:    pool,
		SellerProceeds: price - fee - pool,
	}

	for _, c := range meta.Creators {
		if !c.Verified {
			continue
		}
		share, ok := mulDiv(pool, uint64(c.Share), 100)
		if !ok {
			return nil, ErrArithmeticRange
		}
		if share == 0 {
			continue
		}
		dist.Creators = append(dist.Creators, CreatorPayout{
			Creator: c.Address,
			Amount:  share,
		})
	}

	return dist, nil
}

// mulDiv computes a*b/d with truncation, reporting overflow in a*b.
func mulDiv(a, b, d uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > ^uint64(0)/b {
		return 0, false
	}
	return a * b / d, true
}
