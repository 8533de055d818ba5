package market

import (
	"errors"
	"fmt"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/royalty"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
	"github.com/solmint/marketd/internal/core/tx/system"
)

func init() {
	tx.Register(tx.TypeInitializeMarketplace, func() tx.Instruction {
		return &InitializeMarketplace{}
	})
}

// InitializeMarketplace creates a marketplace record and its fee vault at
// their derived addresses. The signer becomes the marketplace admin; the
// record is immutable once created.
type InitializeMarketplace struct {
	tx.Base

	// Name is the human-readable marketplace name (required, bounded).
	Name string `json:"Name"`

	// FeeBps is the marketplace fee rate in basis points (must be < 10000).
	FeeBps uint16 `json:"FeeBps"`
}

// NewInitializeMarketplace creates an InitializeMarketplace instruction.
func NewInitializeMarketplace(admin, name string, feeBps uint16) *InitializeMarketplace {
	return &InitializeMarketplace{
		Base:   tx.NewBase(admin),
		Name:   name,
		FeeBps: feeBps,
	}
}

// InstructionType returns the instruction type.
func (m *InitializeMarketplace) InstructionType() tx.Type {
	return tx.TypeInitializeMarketplace
}

// ProgramID returns the handling program.
func (m *InitializeMarketplace) ProgramID() tx.Program {
	return tx.ProgramMarket
}

// Validate validates the InitializeMarketplace instruction.
func (m *InitializeMarketplace) Validate() error {
	if err := m.Base.Validate(); err != nil {
		return err
	}
	if m.Name == "" {
		return errors.New("temBAD_NAME: Name is required")
	}
	if len(m.Name) > state.MaxMarketplaceNameLength {
		return fmt.Errorf("temBAD_NAME: Name exceeds %d bytes", state.MaxMarketplaceNameLength)
	}
	if m.FeeBps >= royalty.BpsDenominator {
		return errors.New("temBAD_FEE: FeeBps must be below 10000")
	}
	return nil
}

// Info returns the introspection summary.
func (m *InitializeMarketplace) Info() tx.InstructionInfo {
	src, _ := address.Decode(m.Account)
	return tx.InstructionInfo{
		Program: tx.ProgramMarket,
		Type:    tx.TypeInitializeMarketplace,
		Source:  src,
	}
}

// Apply applies the InitializeMarketplace instruction.
func (m *InitializeMarketplace) Apply(ctx *tx.ApplyContext) tx.Result {
	k, bump := pda.Marketplace(ctx.Signer, m.Name)

	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecALREADY_EXISTS
	}

	feeVault, feeVaultBump := pda.FeeVault(k.Key)

	// The vault address may already carry an account root if someone paid
	// it before the marketplace existed; that is harmless.
	if r := system.CreateAccount(ctx.View, feeVault); !r.IsSuccess() && r != tx.TecALREADY_EXISTS {
		return r
	}

	record := &state.MarketplaceData{
		Admin:        ctx.Signer,
		Name:         m.Name,
		FeeBps:       m.FeeBps,
		FeeVault:     feeVault,
		Bump:         bump,
		FeeVaultBump: feeVaultBump,
	}
	data, err := state.SerializeMarketplace(record)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(k, data); err != nil {
		return tx.TefINTERNAL
	}

	return tx.TesSUCCESS
}
