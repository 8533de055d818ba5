// Package tx implements marketd's transaction engine: the instruction
// framework, the all-or-nothing apply overlay, and the result codes shared
// by every program.
package tx

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/solmint/marketd/internal/codec/address"
)

// Type identifies an instruction type.
type Type string

// Instruction types across all programs.
const (
	TypeTransfer              Type = "Transfer"
	TypeInitializeMarketplace Type = "InitializeMarketplace"
	TypeList                  Type = "List"
	TypeListDelegated         Type = "ListDelegated"
	TypeDelist                Type = "Delist"
	TypeDelistDelegated       Type = "DelistDelegated"
	TypeBuy                   Type = "Buy"
)

// Program identifies which on-ledger program handles an instruction.
type Program string

const (
	// ProgramSystem handles native value transfers.
	ProgramSystem Program = "system"

	// ProgramMarket handles marketplace, listing, and settlement
	// instructions.
	ProgramMarket Program = "market"
)

// Instruction is one operation inside a transaction. Instructions are
// assembled client-side and applied atomically with their siblings.
type Instruction interface {
	// InstructionType returns the instruction type.
	InstructionType() Type

	// ProgramID returns the program that handles this instruction.
	ProgramID() Program

	// Signer returns the base58 address that authorized the instruction.
	Signer() string

	// Validate performs stateless checks before any ledger access.
	Validate() error

	// Apply applies the instruction against the context's view.
	Apply(ctx *ApplyContext) Result

	// Info returns the introspection summary visible to sibling
	// instructions in the same transaction.
	Info() InstructionInfo
}

// InstructionInfo is the read-only view of one instruction that the
// settlement engine inspects when verifying sibling payments. It is part
// of the signed transaction, so a submitter cannot alter it after signing
// without invalidating the whole transaction.
type InstructionInfo struct {
	Program Program
	Type    Type

	// Source is the paying/signing account, when the instruction has one.
	Source address.Address

	// Destination and Amount describe a value movement, when the
	// instruction performs one. Zero otherwise.
	Destination address.Address
	Amount      uint64
}

// Base carries the fields common to every instruction.
type Base struct {
	// Account is the base58 address of the signer.
	Account string `json:"Account"`
}

// NewBase creates instruction common fields for the given signer.
func NewBase(account string) Base {
	return Base{Account: account}
}

// Signer returns the signing account.
func (b *Base) Signer() string {
	return b.Account
}

// Validate checks the common fields.
func (b *Base) Validate() error {
	if b.Account == "" {
		return errors.New("temBAD_ACCOUNT: Account is required")
	}
	if _, err := address.Decode(b.Account); err != nil {
		return fmt.Errorf("temBAD_ACCOUNT: %v", err)
	}
	return nil
}

// Factory creates an empty instruction of a given type, used when decoding
// submitted transactions.
type Factory func() Instruction

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]Factory)
)

// Register registers an instruction factory. Called from package init
// functions of each program.
func Register(t Type, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// NewInstruction creates an empty instruction of the given type, or nil if
// the type is unknown.
func NewInstruction(t Type) Instruction {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := registry[t]; ok {
		return f()
	}
	return nil
}

// RegisteredTypes returns the known instruction types in sorted order.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
