package tx

import (
	"strings"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// Engine applies transactions against a ledger view. Each transaction is
// applied through an ApplyStateTable overlay: the base view only changes
// when every instruction in the transaction succeeds.
type Engine struct {
	view   state.LedgerView
	config EngineConfig
}

// NewEngine creates a new transaction engine.
func NewEngine(view state.LedgerView, config EngineConfig) *Engine {
	if config.MaxInstructions == 0 {
		config.MaxInstructions = MaxTransactionInstructions
	}
	return &Engine{view: view, config: config}
}

// ApplyResult contains the result of applying a transaction.
type ApplyResult struct {
	// Result is the first failing instruction's result code, or tesSUCCESS.
	Result Result

	// Applied indicates whether the transaction reached the ledger.
	Applied bool

	// FailedIndex is the index of the failing instruction, or -1.
	FailedIndex int

	// Metadata lists the entries a committed transaction touched.
	Metadata *Metadata

	// Message is a human-readable result message.
	Message string
}

// Apply validates and applies a transaction atomically.
func (e *Engine) Apply(txn *Transaction) ApplyResult {
	if len(txn.Instructions) == 0 {
		return ApplyResult{
			Result:      TemMALFORMED,
			FailedIndex: -1,
			Message:     "transaction has no instructions",
		}
	}
	if len(txn.Instructions) > e.config.MaxInstructions {
		return ApplyResult{
			Result:      TemMALFORMED,
			FailedIndex: -1,
			Message:     "transaction exceeds instruction limit",
		}
	}

	// Preflight: stateless validation of every instruction before any
	// ledger access.
	for i, ins := range txn.Instructions {
		if err := ins.Validate(); err != nil {
			return ApplyResult{
				Result:      resultFromValidation(err),
				FailedIndex: i,
				Message:     err.Error(),
			}
		}
	}

	txHash := txn.Hash()
	infos := txn.Infos()
	table := NewApplyStateTable(e.view, txHash)

	for i, ins := range txn.Instructions {
		signer, err := address.Decode(ins.Signer())
		if err != nil {
			return ApplyResult{
				Result:      TemBAD_ACCOUNT,
				FailedIndex: i,
				Message:     err.Error(),
			}
		}

		ctx := &ApplyContext{
			View:             table,
			Signer:           signer,
			Instructions:     infos,
			InstructionIndex: i,
			Config:           e.config,
			TxHash:           txHash,
		}

		if r := ins.Apply(ctx); !r.IsSuccess() {
			// Discard the overlay: the base view never saw any of this
			// transaction's effects.
			return ApplyResult{
				Result:      r,
				FailedIndex: i,
				Message:     r.Message(),
			}
		}
	}

	meta, err := table.Apply()
	if err != nil {
		return ApplyResult{
			Result:      TefINTERNAL,
			FailedIndex: -1,
			Message:     "failed to commit state changes: " + err.Error(),
		}
	}

	return ApplyResult{
		Result:      TesSUCCESS,
		Applied:     true,
		FailedIndex: -1,
		Metadata:    meta,
		Message:     TesSUCCESS.Message(),
	}
}

// resultFromValidation maps a Validate error to its result code. Validation
// errors carry their code as a "temXXX:" prefix, matching the sentinel
// error convention used by every program package.
func resultFromValidation(err error) Result {
	msg := err.Error()
	idx := strings.IndexByte(msg, ':')
	if idx > 0 {
		prefix := msg[:idx]
		for code, name := range resultNames {
			if name == prefix {
				return code
			}
		}
	}
	return TemMALFORMED
}
