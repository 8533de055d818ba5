package tx

import (
	"github.com/solmint/marketd/internal/codec/address"
)

// EngineConfig holds configuration for the transaction engine.
type EngineConfig struct {
	// LedgerSequence is the current open ledger sequence.
	LedgerSequence uint32

	// MaxInstructions bounds the number of instructions per transaction.
	MaxInstructions int
}

// ApplyContext provides all the state and helpers needed to apply an
// instruction. It is passed to Instruction.Apply instead of individual
// parameters.
type ApplyContext struct {
	// View provides read/write access to ledger state (the ApplyStateTable
	// shared by every instruction in the transaction).
	View *ApplyStateTable

	// Signer is the decoded signing account of the current instruction.
	Signer address.Address

	// Instructions is the introspection view over every instruction in the
	// current transaction, in submission order, including the current one.
	Instructions []InstructionInfo

	// InstructionIndex is the position of the current instruction within
	// Instructions.
	InstructionIndex int

	// Config holds engine configuration.
	Config EngineConfig

	// TxHash is the hash of the current transaction.
	TxHash [32]byte
}

// SiblingPayments returns the indexes of every system transfer in the
// transaction other than the current instruction. The settlement engine
// consumes these when verifying required payouts.
func (ctx *ApplyContext) SiblingPayments() []int {
	var out []int
	for i, info := range ctx.Instructions {
		if i == ctx.InstructionIndex {
			continue
		}
		if info.Program == ProgramSystem && info.Type == TypeTransfer {
			out = append(out, i)
		}
	}
	return out
}
