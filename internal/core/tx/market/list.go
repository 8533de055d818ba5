package market

import (
	"errors"
	"fmt"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
	"github.com/solmint/marketd/internal/core/tx/token"
)

func init() {
	tx.Register(tx.TypeList, func() tx.Instruction {
		return &List{}
	})
	tx.Register(tx.TypeListDelegated, func() tx.Instruction {
		return &List{delegated: true}
	})
}

// List opens a listing for the signer's asset at a fixed price.
//
// In custodial mode the full balance moves into a vault owned by the
// listing authority. In delegated mode the balance stays put: the listing
// authority receives a transfer delegation over it and the account is
// frozen, so the asset cannot move except through the program.
type List struct {
	tx.Base

	// Marketplace is the derived marketplace address (required).
	Marketplace string `json:"Marketplace"`

	// Mint is the asset identifier (required).
	Mint string `json:"Mint"`

	// Price is the asking price in the smallest native unit (required).
	Price uint64 `json:"Price"`

	delegated bool
}

// NewList creates a custodial List instruction.
func NewList(seller, marketplace, mint string, price uint64) *List {
	return &List{
		Base:        tx.NewBase(seller),
		Marketplace: marketplace,
		Mint:        mint,
		Price:       price,
	}
}

// NewListDelegated creates a delegated (non-custodial) List instruction.
func NewListDelegated(seller, marketplace, mint string, price uint64) *List {
	l := NewList(seller, marketplace, mint, price)
	l.delegated = true
	return l
}

// InstructionType returns the instruction type.
func (l *List) InstructionType() tx.Type {
	if l.delegated {
		return tx.TypeListDelegated
	}
	return tx.TypeList
}

// ProgramID returns the handling program.
func (l *List) ProgramID() tx.Program {
	return tx.ProgramMarket
}

// Validate validates the List instruction.
func (l *List) Validate() error {
	if err := l.Base.Validate(); err != nil {
		return err
	}
	if l.Marketplace == "" {
		return errors.New("temBAD_ACCOUNT: Marketplace is required")
	}
	if _, err := address.Decode(l.Marketplace); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if l.Mint == "" {
		return errors.New("temBAD_ACCOUNT: Mint is required")
	}
	if _, err := address.Decode(l.Mint); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if l.Price == 0 {
		return errors.New("temBAD_PRICE: Price must be positive")
	}
	return nil
}

// Info returns the introspection summary.
func (l *List) Info() tx.InstructionInfo {
	src, _ := address.Decode(l.Account)
	return tx.InstructionInfo{
		Program: tx.ProgramMarket,
		Type:    l.InstructionType(),
		Source:  src,
	}
}

// Apply applies the List instruction.
func (l *List) Apply(ctx *tx.ApplyContext) tx.Result {
	marketplace, err := address.Decode(l.Marketplace)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}
	mint, err := address.Decode(l.Mint)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}

	if _, r := readMarketplace(ctx.View, marketplace); !r.IsSuccess() {
		return r
	}

	listingK, bump := pda.Listing(marketplace, mint)
	exists, err := ctx.View.Exists(listingK)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecALREADY_EXISTS
	}

	if _, r := readMetadata(ctx.View, mint); !r.IsSuccess() {
		return r
	}

	sellerK := pda.TokenAccount(ctx.Signer, mint)
	sellerTA, r := token.Load(ctx.View, sellerK)
	if !r.IsSuccess() {
		return r
	}
	if sellerTA == nil || sellerTA.Amount == 0 {
		return tx.TecINVALID_OWNER
	}
	if sellerTA.Frozen {
		return tx.TecFROZEN
	}
	amount := sellerTA.Amount

	record := &state.ListingData{
		Marketplace: marketplace,
		Seller:      ctx.Signer,
		Mint:        mint,
		Price:       l.Price,
		Bump:        bump,
	}

	if l.delegated {
		record.Mode = state.ModeDelegated
		record.DelegatedAmount = amount
		if r := token.Approve(ctx.View, sellerK, listingK.Key, amount); !r.IsSuccess() {
			return r
		}
		if r := token.Freeze(ctx.View, sellerK); !r.IsSuccess() {
			return r
		}
	} else {
		record.Mode = state.ModeCustodial
		vaultK, vaultBump := pda.ListingVault(listingK.Key)
		record.Vault = vaultK.Key
		record.VaultBump = vaultBump
		if r := token.Withdraw(ctx.View, sellerK, amount); !r.IsSuccess() {
			return r
		}
		if r := token.Deposit(ctx.View, vaultK, address.Address(listingK.Key), mint, amount); !r.IsSuccess() {
			return r
		}
	}

	data, err := state.SerializeListing(record)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(listingK, data); err != nil {
		return tx.TefINTERNAL
	}

	return tx.TesSUCCESS
}
