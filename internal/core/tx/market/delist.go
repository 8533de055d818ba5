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
	tx.Register(tx.TypeDelist, func() tx.Instruction {
		return &Delist{}
	})
	tx.Register(tx.TypeDelistDelegated, func() tx.Instruction {
		return &Delist{delegated: true}
	})
}

// Delist removes the signer's listing and restores the exact pre-listing
// state: custodial mode moves the balance back out of the vault and closes
// it, delegated mode revokes the delegation and thaws the account.
type Delist struct {
	tx.Base

	// Marketplace is the derived marketplace address (required).
	Marketplace string `json:"Marketplace"`

	// Mint is the asset identifier (required).
	Mint string `json:"Mint"`

	delegated bool
}

// NewDelist creates a custodial Delist instruction.
func NewDelist(seller, marketplace, mint string) *Delist {
	return &Delist{
		Base:        tx.NewBase(seller),
		Marketplace: marketplace,
		Mint:        mint,
	}
}

// NewDelistDelegated creates a delegated Delist instruction.
func NewDelistDelegated(seller, marketplace, mint string) *Delist {
	d := NewDelist(seller, marketplace, mint)
	d.delegated = true
	return d
}

// InstructionType returns the instruction type.
func (d *Delist) InstructionType() tx.Type {
	if d.delegated {
		return tx.TypeDelistDelegated
	}
	return tx.TypeDelist
}

// ProgramID returns the handling program.
func (d *Delist) ProgramID() tx.Program {
	return tx.ProgramMarket
}

// Validate validates the Delist instruction.
func (d *Delist) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.Marketplace == "" {
		return errors.New("temBAD_ACCOUNT: Marketplace is required")
	}
	if _, err := address.Decode(d.Marketplace); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if d.Mint == "" {
		return errors.New("temBAD_ACCOUNT: Mint is required")
	}
	if _, err := address.Decode(d.Mint); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	return nil
}

// Info returns the introspection summary.
func (d *Delist) Info() tx.InstructionInfo {
	src, _ := address.Decode(d.Account)
	return tx.InstructionInfo{
		Program: tx.ProgramMarket,
		Type:    d.InstructionType(),
		Source:  src,
	}
}

// Apply applies the Delist instruction.
func (d *Delist) Apply(ctx *tx.ApplyContext) tx.Result {
	marketplace, err := address.Decode(d.Marketplace)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}
	mint, err := address.Decode(d.Mint)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}

	listingK, _ := pda.Listing(marketplace, mint)
	listing, r := readListing(ctx.View, listingK)
	if !r.IsSuccess() {
		return r
	}

	if listing.Seller != ctx.Signer {
		return tx.TecUNAUTHORIZED
	}

	wantMode := state.ModeCustodial
	if d.delegated {
		wantMode = state.ModeDelegated
	}
	if listing.Mode != wantMode {
		return tx.TemINVALID
	}

	sellerK := pda.TokenAccount(listing.Seller, mint)

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
		if r := token.Withdraw(ctx.View, vaultK, vault.Amount); !r.IsSuccess() {
			return r
		}
		if r := token.Deposit(ctx.View, sellerK, listing.Seller, mint, vault.Amount); !r.IsSuccess() {
			return r
		}
		if r := token.Close(ctx.View, vaultK); !r.IsSuccess() {
			return r
		}

	case state.ModeDelegated:
		if r := token.Thaw(ctx.View, sellerK); !r.IsSuccess() {
			return r
		}
		if r := token.Revoke(ctx.View, sellerK); !r.IsSuccess() {
			return r
		}
	}

	if err := ctx.View.Erase(listingK); err != nil {
		return tx.TefINTERNAL
	}

	return tx.TesSUCCESS
}
