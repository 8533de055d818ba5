package tx

import (
	"bytes"
	"fmt"

	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// Action represents the type of modification to a ledger entry.
type Action int

const (
	// ActionCache means the entry was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new entry was created.
	ActionInsert
	// ActionModify means an existing entry was modified.
	ActionModify
	// ActionErase means an entry was deleted.
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes.
type TrackedEntry struct {
	Type     pda.Keylet
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// ApplyStateTable wraps a LedgerView and buffers all modifications made by
// a transaction. Nothing reaches the base view until Apply commits; a
// discarded table leaves the base untouched, which is what makes a failed
// transaction side-effect free.
type ApplyStateTable struct {
	base   state.LedgerView
	items  map[[32]byte]*TrackedEntry
	txHash [32]byte
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base
// view.
func NewApplyStateTable(base state.LedgerView, txHash [32]byte) *ApplyStateTable {
	return &ApplyStateTable{
		base:   base,
		items:  make(map[[32]byte]*TrackedEntry),
		txHash: txHash,
	}
}

// Read reads a ledger entry, tracking it as cached.
func (t *ApplyStateTable) Read(k pda.Keylet) ([]byte, error) {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return nil, nil
		}
		return e.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Type:     k,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists.
func (t *ApplyStateTable) Exists(k pda.Keylet) (bool, error) {
	if e, exists := t.items[k.Key]; exists {
		return e.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry.
func (t *ApplyStateTable) Insert(k pda.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting a deleted entry becomes a modify.
		e.Action = ActionModify
		e.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:    k,
		Action:  ActionInsert,
		Current: data,
	}

	return nil
}

// Update modifies an existing entry.
func (t *ApplyStateTable) Update(k pda.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return fmt.Errorf("entry not found (deleted)")
		}
		if e.Action == ActionCache {
			e.Action = ActionModify
		}
		// For insert, keep it as insert with new data.
		e.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry not found")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}

	return nil
}

// Erase removes an entry.
func (t *ApplyStateTable) Erase(k pda.Keylet) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return fmt.Errorf("entry already deleted")
		}
		if e.Action == ActionInsert {
			// Inserting then deleting = no change.
			delete(t.items, k.Key)
			return nil
		}
		e.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("entry not found")
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}

	return nil
}

// ForEach iterates over the base state plus buffered modifications.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	seen := make(map[[32]byte]bool, len(t.items))
	for key, e := range t.items {
		seen[key] = true
		if e.Action == ActionErase {
			continue
		}
		if !fn(key, e.Current) {
			return nil
		}
	}
	return t.base.ForEach(func(key [32]byte, data []byte) bool {
		if seen[key] {
			return true
		}
		return fn(key, data)
	})
}

// AffectedEntry describes one entry touched by a committed transaction.
type AffectedEntry struct {
	Key    [32]byte
	Entry  string // entry type name
	Action string // "Created", "Modified", or "Deleted"
}

// Metadata lists the changes a committed transaction made.
type Metadata struct {
	AffectedEntries []AffectedEntry
	TxHash          [32]byte
}

// Apply commits all buffered changes to the base view and returns the
// generated metadata.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	meta := &Metadata{
		AffectedEntries: make([]AffectedEntry, 0, len(t.items)),
		TxHash:          t.txHash,
	}

	for key, e := range t.items {
		switch e.Action {
		case ActionCache:
			continue

		case ActionInsert:
			if err := t.base.Insert(e.Type, e.Current); err != nil {
				return nil, err
			}
			meta.AffectedEntries = append(meta.AffectedEntries, AffectedEntry{
				Key:    key,
				Entry:  e.Type.Type.String(),
				Action: "Created",
			})

		case ActionModify:
			if bytes.Equal(e.Original, e.Current) {
				continue
			}
			if err := t.base.Update(e.Type, e.Current); err != nil {
				return nil, err
			}
			meta.AffectedEntries = append(meta.AffectedEntries, AffectedEntry{
				Key:    key,
				Entry:  e.Type.Type.String(),
				Action: "Modified",
			})

		case ActionErase:
			if err := t.base.Erase(e.Type); err != nil {
				return nil, err
			}
			meta.AffectedEntries = append(meta.AffectedEntries, AffectedEntry{
				Key:    key,
				Entry:  e.Type.Type.String(),
				Action: "Deleted",
			})
		}
	}

	return meta, nil
}
