package state

import "github.com/solmint/marketd/internal/core/ledger/pda"

// LedgerView provides read/write access to ledger state.
type LedgerView interface {
	// Read reads a ledger entry. A missing entry returns (nil, nil).
	Read(k pda.Keylet) ([]byte, error)

	// Exists checks if an entry exists.
	Exists(k pda.Keylet) (bool, error)

	// Insert adds a new entry. Inserting over an existing entry fails.
	Insert(k pda.Keylet, data []byte) error

	// Update modifies an existing entry.
	Update(k pda.Keylet, data []byte) error

	// Erase removes an entry.
	Erase(k pda.Keylet) error

	// ForEach iterates over all state entries.
	// If fn returns false, iteration stops early.
	ForEach(fn func(key [32]byte, data []byte) bool) error
}
