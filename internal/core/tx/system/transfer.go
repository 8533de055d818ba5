// Package system implements the native value-transfer instruction: the
// ledger primitive the settlement engine requires as sibling payments
// inside a buy transaction.
package system

import (
	"errors"
	"fmt"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
)

func init() {
	tx.Register(tx.TypeTransfer, func() tx.Instruction {
		return &Transfer{}
	})
}

// Transfer moves native value from the signer to a destination account.
// The destination account root is created on first credit.
type Transfer struct {
	tx.Base

	// Destination is the base58 address receiving the value (required).
	Destination string `json:"Destination"`

	// Amount is the value to move, in the smallest native unit (required).
	Amount uint64 `json:"Amount"`
}

// NewTransfer creates a Transfer instruction.
func NewTransfer(account, destination string, amount uint64) *Transfer {
	return &Transfer{
		Base:        tx.NewBase(account),
		Destination: destination,
		Amount:      amount,
	}
}

// InstructionType returns the instruction type.
func (t *Transfer) InstructionType() tx.Type {
	return tx.TypeTransfer
}

// ProgramID returns the handling program.
func (t *Transfer) ProgramID() tx.Program {
	return tx.ProgramSystem
}

// Validate validates the Transfer instruction.
func (t *Transfer) Validate() error {
	if err := t.Base.Validate(); err != nil {
		return err
	}
	if t.Destination == "" {
		return errors.New("temBAD_ACCOUNT: Destination is required")
	}
	if _, err := address.Decode(t.Destination); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	if t.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	return nil
}

// Info returns the introspection summary. The settlement engine matches
// required payouts against Destination and Amount.
func (t *Transfer) Info() tx.InstructionInfo {
	src, _ := address.Decode(t.Account)
	dst, _ := address.Decode(t.Destination)
	return tx.InstructionInfo{
		Program:     tx.ProgramSystem,
		Type:        tx.TypeTransfer,
		Source:      src,
		Destination: dst,
		Amount:      t.Amount,
	}
}

// Apply applies the Transfer instruction.
func (t *Transfer) Apply(ctx *tx.ApplyContext) tx.Result {
	destination, err := address.Decode(t.Destination)
	if err != nil {
		return tx.TemBAD_ACCOUNT
	}

	if r := Debit(ctx.View, ctx.Signer, t.Amount); !r.IsSuccess() {
		return r
	}
	return Credit(ctx.View, destination, t.Amount)
}

// Debit removes amount from an account root's native balance.
func Debit(view state.LedgerView, account address.Address, amount uint64) tx.Result {
	k := pda.Account(account)
	data, err := view.Read(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if data == nil {
		return tx.TecACCOUNT_NOT_FOUND
	}
	root, err := state.ParseAccountRoot(data)
	if err != nil {
		return tx.TefINTERNAL
	}
	if root.Balance < amount {
		return tx.TecINSUFFICIENT_FUNDS
	}
	root.Balance -= amount
	return writeRoot(view, k, root, true)
}

// Credit adds amount to an account root's native balance, creating the
// account on first credit.
func Credit(view state.LedgerView, account address.Address, amount uint64) tx.Result {
	k := pda.Account(account)
	data, err := view.Read(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if data == nil {
		root := &state.AccountRootData{Account: account, Balance: amount}
		return writeRoot(view, k, root, false)
	}
	root, err := state.ParseAccountRoot(data)
	if err != nil {
		return tx.TefINTERNAL
	}
	if root.Balance+amount < root.Balance {
		return tx.TecARITHMETIC_RANGE
	}
	root.Balance += amount
	return writeRoot(view, k, root, true)
}

// CreateAccount inserts an empty account root for the given address. Used
// for fee vaults, whose address is program-derived and has no signing key
// but which receive payments like any other account.
func CreateAccount(view state.LedgerView, account address.Address) tx.Result {
	k := pda.Account(account)
	exists, err := view.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecALREADY_EXISTS
	}
	root := &state.AccountRootData{Account: account}
	return writeRoot(view, k, root, false)
}

// Balance returns the native balance of an account, or zero if the account
// root does not exist.
func Balance(view state.LedgerView, account address.Address) (uint64, error) {
	data, err := view.Read(pda.Account(account))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	root, err := state.ParseAccountRoot(data)
	if err != nil {
		return 0, err
	}
	return root.Balance, nil
}

func writeRoot(view state.LedgerView, k pda.Keylet, root *state.AccountRootData, update bool) tx.Result {
	data, err := state.SerializeAccountRoot(root)
	if err != nil {
		return tx.TefINTERNAL
	}
	if update {
		err = view.Update(k, data)
	} else {
		err = view.Insert(k, data)
	}
	if err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
