// Package token implements the token-account primitives the marketplace
// program is built on: deposits, withdrawals, transfer delegation, freeze,
// and account closure. All helpers operate on whatever view they are
// given, so their effects stay inside the enclosing transaction's overlay.
package token

import (
	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// Load reads the token account at the given keylet. A missing account
// returns (nil, tesSUCCESS); callers decide whether absence is an error.
func Load(view state.LedgerView, k pda.Keylet) (*state.TokenAccountData, tx.Result) {
	data, err := view.Read(k)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TesSUCCESS
	}
	ta, err := state.ParseTokenAccount(data)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	return ta, tx.TesSUCCESS
}

// store writes a token account back, inserting or updating as needed.
func store(view state.LedgerView, k pda.Keylet, ta *state.TokenAccountData) tx.Result {
	data, err := state.SerializeTokenAccount(ta)
	if err != nil {
		return tx.TefINTERNAL
	}
	exists, err := view.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		if err := view.Update(k, data); err != nil {
			return tx.TefINTERNAL
		}
	} else {
		if err := view.Insert(k, data); err != nil {
			return tx.TefINTERNAL
		}
	}
	return tx.TesSUCCESS
}

// Deposit credits amount to the token account at k, creating it with the
// given owner and mint if it does not exist yet. Frozen accounts reject
// credits as well as debits.
func Deposit(view state.LedgerView, k pda.Keylet, owner, mint address.Address, amount uint64) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		ta = &state.TokenAccountData{Mint: mint, Owner: owner}
	}
	if ta.Frozen {
		return tx.TecFROZEN
	}
	if ta.Amount+amount < ta.Amount {
		return tx.TecARITHMETIC_RANGE
	}
	ta.Amount += amount
	return store(view, k, ta)
}

// Withdraw debits amount from the token account at k. Frozen accounts
// reject withdrawals; the program must thaw first.
func Withdraw(view state.LedgerView, k pda.Keylet, amount uint64) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		return tx.TecNOT_FOUND
	}
	if ta.Frozen {
		return tx.TecFROZEN
	}
	if ta.Amount < amount {
		return tx.TecINSUFFICIENT_FUNDS
	}
	ta.Amount -= amount
	return store(view, k, ta)
}

// Approve grants delegate the right to move up to amount out of the token
// account at k. At most one delegation exists per account; approving
// replaces any previous one.
func Approve(view state.LedgerView, k pda.Keylet, delegate [32]byte, amount uint64) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		return tx.TecNOT_FOUND
	}
	d := delegate
	ta.Delegate = &d
	ta.DelegatedAmount = amount
	return store(view, k, ta)
}

// Revoke removes any transfer delegation from the token account at k.
func Revoke(view state.LedgerView, k pda.Keylet) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		return tx.TecNOT_FOUND
	}
	ta.Delegate = nil
	ta.DelegatedAmount = 0
	return store(view, k, ta)
}

// Freeze marks the token account at k frozen.
func Freeze(view state.LedgerView, k pda.Keylet) tx.Result {
	return setFrozen(view, k, true)
}

// Thaw clears the frozen flag on the token account at k.
func Thaw(view state.LedgerView, k pda.Keylet) tx.Result {
	return setFrozen(view, k, false)
}

func setFrozen(view state.LedgerView, k pda.Keylet, frozen bool) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		return tx.TecNOT_FOUND
	}
	ta.Frozen = frozen
	return store(view, k, ta)
}

// Close erases the token account at k. The balance must already be zero.
func Close(view state.LedgerView, k pda.Keylet) tx.Result {
	ta, r := Load(view, k)
	if !r.IsSuccess() {
		return r
	}
	if ta == nil {
		return tx.TecNOT_FOUND
	}
	if ta.Amount != 0 {
		return tx.TecVAULT_NOT_EMPTY
	}
	if err := view.Erase(k); err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
