package ledger

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/crypto/common"
)

// stateEntry pairs an entry's keylet with its serialized data so the map
// can round-trip entries through persistence without losing their type.
type stateEntry struct {
	keylet pda.Keylet
	data   []byte
}

// StateMap holds the full ledger state of one ledger. It is the base view
// the transaction engine commits into for the open ledger, and an immutable
// snapshot for closed ones.
type StateMap struct {
	mu      sync.RWMutex
	entries map[[32]byte]stateEntry
}

// NewStateMap creates an empty state map.
func NewStateMap() *StateMap {
	return &StateMap{
		entries: make(map[[32]byte]stateEntry),
	}
}

// Read reads a ledger entry. A missing entry returns (nil, nil).
func (m *StateMap) Read(k pda.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[k.Key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Exists checks if an entry exists.
func (m *StateMap) Exists(k pda.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[k.Key]
	return ok, nil
}

// Insert adds a new entry. Inserting over an existing entry fails.
func (m *StateMap) Insert(k pda.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k.Key]; ok {
		return errors.New("entry already exists")
	}
	m.entries[k.Key] = stateEntry{keylet: k, data: append([]byte(nil), data...)}
	return nil
}

// Update modifies an existing entry.
func (m *StateMap) Update(k pda.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k.Key]; !ok {
		return errors.New("entry not found")
	}
	m.entries[k.Key] = stateEntry{keylet: k, data: append([]byte(nil), data...)}
	return nil
}

// Erase removes an entry.
func (m *StateMap) Erase(k pda.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k.Key]; !ok {
		return errors.New("entry not found")
	}
	delete(m.entries, k.Key)
	return nil
}

// ForEach iterates over all state entries. If fn returns false, iteration
// stops early.
func (m *StateMap) ForEach(fn func(key [32]byte, data []byte) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for key, e := range m.entries {
		if !fn(key, e.data) {
			return nil
		}
	}
	return nil
}

// Entries returns a snapshot of all entries with their keylets, ordered by
// key. The snapshot is safe to hold across later mutations.
func (m *StateMap) Entries() []pda.Keylet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]pda.Keylet, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.keylet)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessKey(out[i].Key, out[j].Key)
	})
	return out
}

// Size returns the number of entries in the map.
func (m *StateMap) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clone returns a deep copy for use as the next open ledger's state.
func (m *StateMap) Clone() *StateMap {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := NewStateMap()
	for key, e := range m.entries {
		c.entries[key] = stateEntry{
			keylet: e.keylet,
			data:   append([]byte(nil), e.data...),
		}
	}
	return c
}

// Hash computes the deterministic hash of the full state: entries are
// folded in key order, so two maps holding the same entries always hash
// the same.
func (m *StateMap) Hash() [32]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([][32]byte, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessKey(keys[i], keys[j])
	})

	msgs := make([][]byte, 0, len(keys)*2+1)
	msgs = append(msgs, []byte("STM\x00"))
	for _, key := range keys {
		e := m.entries[key]
		msgs = append(msgs, key[:], e.data)
	}
	return common.Sha512Half(msgs...)
}

func lessKey(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
