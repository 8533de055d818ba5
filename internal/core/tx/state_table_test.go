package tx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/entry"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
)

func testKeylet(name string) pda.Keylet {
	return pda.Keylet{
		Type: entry.TypeAccountRoot,
		Key:  crypto.Sha512Half([]byte(name)),
	}
}

func TestStateTableBufferedWrites(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")
	table := tx.NewApplyStateTable(base, [32]byte{})

	require.NoError(t, table.Insert(k, []byte("one")))

	// The overlay sees the insert; the base does not.
	data, err := table.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), data)

	baseData, err := base.Read(k)
	require.NoError(t, err)
	require.Nil(t, baseData)

	// Commit pushes the change through.
	meta, err := table.Apply()
	require.NoError(t, err)
	require.Len(t, meta.AffectedEntries, 1)
	require.Equal(t, "Created", meta.AffectedEntries[0].Action)

	baseData, err = base.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), baseData)
}

func TestStateTableDiscard(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")
	require.NoError(t, base.Insert(k, []byte("original")))

	// Mutate through an overlay, then drop it instead of applying.
	table := tx.NewApplyStateTable(base, [32]byte{})
	require.NoError(t, table.Update(k, []byte("changed")))
	require.NoError(t, table.Insert(testKeylet("b"), []byte("new")))

	data, err := base.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), data)

	exists, err := base.Exists(testKeylet("b"))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStateTableEraseThenInsert(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")
	require.NoError(t, base.Insert(k, []byte("old")))

	table := tx.NewApplyStateTable(base, [32]byte{})
	require.NoError(t, table.Erase(k))

	data, err := table.Read(k)
	require.NoError(t, err)
	require.Nil(t, data)

	// Re-creating a deleted entry within the same transaction nets out to
	// a modify.
	require.NoError(t, table.Insert(k, []byte("new")))
	meta, err := table.Apply()
	require.NoError(t, err)
	require.Len(t, meta.AffectedEntries, 1)
	require.Equal(t, "Modified", meta.AffectedEntries[0].Action)

	data, err = base.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), data)
}

func TestStateTableInsertThenErase(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")

	table := tx.NewApplyStateTable(base, [32]byte{})
	require.NoError(t, table.Insert(k, []byte("tmp")))
	require.NoError(t, table.Erase(k))

	meta, err := table.Apply()
	require.NoError(t, err)
	require.Empty(t, meta.AffectedEntries)
}

func TestStateTableDuplicateInsert(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")
	require.NoError(t, base.Insert(k, []byte("one")))

	table := tx.NewApplyStateTable(base, [32]byte{})
	require.Error(t, table.Insert(k, []byte("two")))
}

func TestStateTableUpdateMissing(t *testing.T) {
	base := ledger.NewStateMap()
	table := tx.NewApplyStateTable(base, [32]byte{})
	require.Error(t, table.Update(testKeylet("missing"), []byte("x")))
	require.Error(t, table.Erase(testKeylet("missing")))
}

func TestStateTableUnchangedModifyOmitted(t *testing.T) {
	base := ledger.NewStateMap()
	k := testKeylet("a")
	require.NoError(t, base.Insert(k, []byte("same")))

	table := tx.NewApplyStateTable(base, [32]byte{})
	require.NoError(t, table.Update(k, []byte("same")))

	meta, err := table.Apply()
	require.NoError(t, err)
	require.Empty(t, meta.AffectedEntries)
}

func TestStateTableForEach(t *testing.T) {
	base := ledger.NewStateMap()
	require.NoError(t, base.Insert(testKeylet("a"), []byte("a")))
	require.NoError(t, base.Insert(testKeylet("b"), []byte("b")))

	table := tx.NewApplyStateTable(base, [32]byte{})
	require.NoError(t, table.Erase(testKeylet("a")))
	require.NoError(t, table.Insert(testKeylet("c"), []byte("c")))

	seen := make(map[string]bool)
	require.NoError(t, table.ForEach(func(key [32]byte, data []byte) bool {
		seen[string(data)] = true
		return true
	}))
	require.Equal(t, map[string]bool{"b": true, "c": true}, seen)
}
