// Package ledger implements the ledger chain: a state map per ledger, the
// headers linking them, and the genesis construction that seeds the first
// one.
package ledger

import (
	"time"

	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/crypto/common"
)

// Ledger is one link in the chain. The open ledger is mutable and receives
// transactions through its state map; closing seals the header and the
// ledger never changes again.
type Ledger struct {
	State  *StateMap
	Header Header

	// TxHashes are the hashes of transactions applied to this ledger,
	// in application order.
	TxHashes [][32]byte
}

// Sequence returns the ledger sequence number.
func (l *Ledger) Sequence() uint32 {
	return l.Header.Sequence
}

// Hash returns the header hash. Only meaningful once the ledger is closed.
func (l *Ledger) Hash() [32]byte {
	return l.Header.Hash
}

// ParentHash returns the parent ledger's hash.
func (l *Ledger) ParentHash() [32]byte {
	return l.Header.ParentHash
}

// CloseTime returns the time the ledger was closed.
func (l *Ledger) CloseTime() time.Time {
	return l.Header.CloseTime
}

// IsClosed reports whether the ledger has been sealed.
func (l *Ledger) IsClosed() bool {
	return l.Header.Closed
}

// IsValidated reports whether the ledger has been validated.
func (l *Ledger) IsValidated() bool {
	return l.Header.Validated
}

// RecordTx appends an applied transaction hash. Only valid on the open
// ledger.
func (l *Ledger) RecordTx(hash [32]byte) error {
	if l.Header.Closed {
		return errors.New("ledger is closed")
	}
	l.TxHashes = append(l.TxHashes, hash)
	return nil
}

// Close seals the ledger: the state and transaction hashes are computed
// and the header hash is fixed.
func (l *Ledger) Close(closeTime time.Time) error {
	if l.Header.Closed {
		return errors.New("ledger already closed")
	}

	l.Header.StateHash = l.State.Hash()
	l.Header.TxHash = txListHash(l.TxHashes)
	l.Header.CloseTime = closeTime
	l.Header.Closed = true
	l.Header.Hash = l.Header.ComputeHash()
	return nil
}

// SetValidated marks a closed ledger as validated.
func (l *Ledger) SetValidated() error {
	if !l.Header.Closed {
		return errors.New("ledger is not closed")
	}
	l.Header.Validated = true
	return nil
}

// NewOpen creates the next open ledger on top of a closed parent.
func NewOpen(parent *Ledger) (*Ledger, error) {
	if parent == nil {
		return nil, errors.New("parent ledger is nil")
	}
	if !parent.Header.Closed {
		return nil, errors.New("parent ledger is not closed")
	}

	return &Ledger{
		State: parent.State.Clone(),
		Header: Header{
			Sequence:   parent.Header.Sequence + 1,
			ParentHash: parent.Header.Hash,
		},
	}, nil
}

// txListHash folds the applied transaction hashes, in order, into one.
func txListHash(hashes [][32]byte) [32]byte {
	msgs := make([][]byte, 0, len(hashes)+1)
	msgs = append(msgs, []byte("TXL\x00"))
	for i := range hashes {
		msgs = append(msgs, hashes[i][:])
	}
	return common.Sha512Half(msgs...)
}
