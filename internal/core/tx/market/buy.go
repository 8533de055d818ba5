package market

import (
	"errors"
	"fmt"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/royalty"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
	"github.com/solmint/marketd/internal/core/tx/token"
)

func init() {
	tx.Register(tx.TypeBuy, func() tx.Instruction {
		return &Buy{}
	})
}

// Buy settles a purchase. The instruction itself never moves funds: the
// buyer submits the required payouts as sibling system transfers in the
// same transaction, and Buy verifies every payout the royalty resolver
// demands is covered before releasing the asset. A payout and the sibling
// that covers it must match exactly on destination and amount, and each
// sibling covers at most one payout.
type Buy struct {
	tx.Base

	// Marketplace is the derived marketplace address (required).
	Marketplace string `json:"Marketplace"`

	// Mint is the asset identifier (required).
	Mint string `json:"Mint"`
}

// NewBuy creates a Buy instruction signed by the buyer.
func NewBuy(buyer, marketplace, mint string) *Buy {
	return &Buy{
		Base:        tx.NewBase(buyer),
		Marketplace: marketplace,
		Mint:        mint,
	}
}

// InstructionType returns the instruction type.
func (b *Buy) InstructionType() tx.Type {
	return tx.TypeBuy
}

// ProgramID returns the handling program.
func (b *Buy) ProgramID() tx.Program {
	return tx.ProgramMarket
}

// Validate validates the Buy instruction.
func (b *Buy) Validate() error {
	if err := b.Base.Validate(); err != nil {
		return err
	}
	if b.Marketplace == "" {
		return errors.New("temBAD_ACCOUNT: Marketplace is required")
	}
	if _, err := address.Decode(b.Marketplace); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if b.Mint == "" {
		return errors.New("temBAD_ACCOUNT: Mint is required")
	}
	if _, err := address.Decode(b.Mint); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	return nil
}

// Info returns the introspection summary.
func (b *Buy) Info() tx.InstructionInfo {
	src, _ := address.Decode(b.Account)
	return tx.InstructionInfo{
		Program: tx.ProgramMarket,
		Type:    tx.TypeBuy,
		Source:  src,
	}
}

// requiredPayout is one payment the settlement demands from the buyer.
type requiredPayout struct {
	destination address.Address
	amount      uint64
}

// Apply applies the Buy instruction.
func (b *Buy) Apply(ctx *tx.ApplyContext) tx.Result {
	marketplace, err := address.Decode(b.Marketplace)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}
	mint, err := address.Decode(b.Mint)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}

	mp, r := readMarketplace(ctx.View, marketplace)
	if !r.IsSuccess() {
		return r
	}

	listingK, _ := pda.Listing(marketplace, mint)
	listing, r := readListing(ctx.View, listingK)
	if !r.IsSuccess() {
		return r
	}

	meta, r := readMetadata(ctx.View, mint)
	if !r.IsSuccess() {
		return r
	}

	dist, err := royalty.Compute(listing.Price, mp.FeeBps, meta)
	if err != nil {
		switch {
		case errors.Is(err, royalty.ErrArithmeticRange):
			return tx.TecARITHMETIC_RANGE
		default:
			return tx.TecINVALID_METADATA
		}
	}

	required := make([]requiredPayout, 0, len(dist.Creators)+2)
	if dist.SellerProceeds > 0 {
		required = append(required, requiredPayout{listing.Seller, dist.SellerProceeds})
	}
	if dist.MarketplaceFee > 0 {
		required = append(required, requiredPayout{mp.FeeVault, dist.MarketplaceFee})
	}
	for _, c := range dist.Creators {
		if c.Amount > 0 {
			required = append(required, requiredPayout{c.Creator, c.Amount})
		}
	}

	if r := b.matchPayments(ctx, required); !r.IsSuccess() {
		return r
	}

	buyerK := pda.TokenAccount(ctx.Signer, mint)

	switch listing.Mode {
	case state.ModeCustodial:
		vaultK := vaultKeylet(listing.Vault)
		vault, r := token.Load(ctx.View, vaultK)
		if !r.IsSuccess() {
			return r
		}
		if vault == nil {
			return tx.TefINTERNAL
		}
		amount := vault.Amount
		if r := token.Withdraw(ctx.View, vaultK, amount); !r.IsSuccess() {
			return r
		}
		if r := token.Close(ctx.View, vaultK); !r.IsSuccess() {
			return r
		}
		if r := token.Deposit(ctx.View, buyerK, ctx.Signer, mint, amount); !r.IsSuccess() {
			return r
		}

	case state.ModeDelegated:
		sellerK := pda.TokenAccount(listing.Seller, mint)
		seller, r := token.Load(ctx.View, sellerK)
		if !r.IsSuccess() {
			return r
		}
		if seller == nil {
			return tx.TecNOT_FOUND
		}
		if seller.Delegate == nil || *seller.Delegate != listingK.Key {
			return tx.TecDELEGATE_MISSING
		}
		if seller.DelegatedAmount < listing.DelegatedAmount {
			return tx.TecDELEGATE_MISSING
		}
		if r := token.Thaw(ctx.View, sellerK); !r.IsSuccess() {
			return r
		}
		if r := token.Withdraw(ctx.View, sellerK, listing.DelegatedAmount); !r.IsSuccess() {
			return r
		}
		if r := token.Revoke(ctx.View, sellerK); !r.IsSuccess() {
			return r
		}
		if r := token.Deposit(ctx.View, buyerK, ctx.Signer, mint, listing.DelegatedAmount); !r.IsSuccess() {
			return r
		}

	default:
		return tx.TefINTERNAL
	}

	if err := ctx.View.Erase(listingK); err != nil {
		return tx.TefINTERNAL
	}

	return tx.TesSUCCESS
}

// matchPayments verifies every required payout is covered by a distinct
// sibling system transfer signed by the buyer.
func (b *Buy) matchPayments(ctx *tx.ApplyContext, required []requiredPayout) tx.Result {
	siblings := ctx.SiblingPayments()
	consumed := make(map[int]bool, len(siblings))

	for _, want := range required {
		found := false
		for _, i := range siblings {
			if consumed[i] {
				continue
			}
			info := ctx.Instructions[i]
			if info.Source != ctx.Signer {
				continue
			}
			if info.Destination != want.destination || info.Amount != want.amount {
				continue
			}
			consumed[i] = true
			found = true
			break
		}
		if !found {
			return tx.TecPAYMENT_MISMATCH
		}
	}
	return tx.TesSUCCESS
}
