package tx

import (
	"encoding/json"

	crypto "github.com/solmint/marketd/internal/crypto/common"
)

// MaxTransactionInstructions is the default bound on instructions per
// transaction.
const MaxTransactionInstructions = 16

// Transaction is an ordered, atomic batch of instructions. Either every
// instruction applies or none of them do.
type Transaction struct {
	Instructions []Instruction
}

// NewTransaction creates a transaction from the given instructions.
func NewTransaction(instructions ...Instruction) *Transaction {
	return &Transaction{Instructions: instructions}
}

// Infos returns the introspection view of the transaction: one summary per
// instruction, in submission order.
func (t *Transaction) Infos() []InstructionInfo {
	infos := make([]InstructionInfo, len(t.Instructions))
	for i, ins := range t.Instructions {
		infos[i] = ins.Info()
	}
	return infos
}

// Hash computes the transaction hash over its wire form, so every
// instruction field is covered. MarshalJSON emits objects with sorted
// keys, which keeps the encoding canonical.
func (t *Transaction) Hash() [32]byte {
	// Registered instruction types are plain data structs; marshaling
	// them cannot fail.
	wire, _ := json.Marshal(t)
	return crypto.Sha512Half([]byte("TXN\x00"), wire)
}

// MarshalJSON emits the wire form of the transaction: an object with an
// "instructions" array where each element carries its InstructionType
// discriminator alongside the instruction's own fields.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	instructions := make([]json.RawMessage, len(t.Instructions))
	for i, ins := range t.Instructions {
		data, err := json.Marshal(ins)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		typeName, err := json.Marshal(string(ins.InstructionType()))
		if err != nil {
			return nil, err
		}
		fields["InstructionType"] = typeName
		if instructions[i], err = json.Marshal(fields); err != nil {
			return nil, err
		}
	}
	return json.Marshal(map[string][]json.RawMessage{
		"instructions": instructions,
	})
}
