package nodestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/storage/nodestore"
)

func testNode(data string) *nodestore.Node {
	return nodestore.NewNode(nodestore.NodeEntry, []byte(data))
}

func openDatabase(t *testing.T) *nodestore.DatabaseImpl {
	t.Helper()
	backend := nodestore.NewMemoryBackend()
	require.NoError(t, backend.Open(true))
	db := nodestore.NewDatabase(backend, 100, time.Minute)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseStoreFetch(t *testing.T) {
	db := openDatabase(t)
	ctx := context.Background()

	node := testNode("hello")
	require.NoError(t, db.Store(ctx, node))

	fetched, err := db.Fetch(ctx, node.Hash)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, node.Hash, fetched.Hash)
	require.Equal(t, node.Data, fetched.Data)
	require.Equal(t, nodestore.NodeEntry, fetched.Type)
}

func TestDatabaseFetchMissing(t *testing.T) {
	db := openDatabase(t)

	missing := nodestore.Hash256FromData([]byte("never stored"))
	node, err := db.Fetch(context.Background(), missing)
	require.NoError(t, err)
	require.Nil(t, node)
}

func TestDatabaseBatch(t *testing.T) {
	db := openDatabase(t)
	ctx := context.Background()

	nodes := []*nodestore.Node{testNode("a"), testNode("b"), testNode("c")}
	require.NoError(t, db.StoreBatch(ctx, nodes))

	hashes := []nodestore.Hash256{nodes[0].Hash, nodes[2].Hash}
	fetched, err := db.FetchBatch(ctx, hashes)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	require.Equal(t, nodes[0].Data, fetched[0].Data)
	require.Equal(t, nodes[2].Data, fetched[1].Data)
}

func TestDatabaseCacheHits(t *testing.T) {
	db := openDatabase(t)
	ctx := context.Background()

	node := testNode("cached")
	require.NoError(t, db.Store(ctx, node))

	for i := 0; i < 3; i++ {
		_, err := db.Fetch(ctx, node.Hash)
		require.NoError(t, err)
	}

	stats := db.Stats()
	require.Equal(t, uint64(1), stats.Writes)
	require.Equal(t, uint64(3), stats.Reads)
	require.NotZero(t, stats.CacheHits)
}

func TestMemoryBackendLifecycle(t *testing.T) {
	backend := nodestore.NewMemoryBackend()
	require.False(t, backend.IsOpen())

	node := testNode("x")
	require.Equal(t, nodestore.BackendError, backend.Store(node))

	require.NoError(t, backend.Open(true))
	require.True(t, backend.IsOpen())
	require.Equal(t, nodestore.OK, backend.Store(node))

	fetched, status := backend.Fetch(node.Hash)
	require.Equal(t, nodestore.OK, status)
	require.Equal(t, node.Data, fetched.Data)

	// The backend hands out copies, not its internal node.
	fetched.Data[0] = 'Y'
	again, status := backend.Fetch(node.Hash)
	require.Equal(t, nodestore.OK, status)
	require.Equal(t, nodestore.Blob("x"), again.Data)

	require.NoError(t, backend.Close())
	require.False(t, backend.IsOpen())
}

func TestMemoryBackendForEach(t *testing.T) {
	backend := nodestore.NewMemoryBackend()
	require.NoError(t, backend.Open(true))

	nodes := []*nodestore.Node{testNode("a"), testNode("b")}
	require.Equal(t, nodestore.OK, backend.StoreBatch(nodes))

	seen := 0
	require.NoError(t, backend.ForEach(func(n *nodestore.Node) error {
		seen++
		return nil
	}))
	require.Equal(t, 2, seen)
}

func TestBackendRegistry(t *testing.T) {
	require.True(t, nodestore.IsBackendAvailable("memory"))
	require.True(t, nodestore.IsBackendAvailable("pebble"))
	require.True(t, nodestore.IsBackendAvailable("leveldb"))
	require.False(t, nodestore.IsBackendAvailable("nudb"))

	_, err := nodestore.CreateBackend("nudb", nodestore.DefaultConfig())
	require.Error(t, err)
}

func TestOpenWithConfig(t *testing.T) {
	cfg := nodestore.DefaultConfig()
	cfg.ApplyOptions(
		nodestore.WithBackend("pebble"),
		nodestore.WithPath(t.TempDir()),
		nodestore.WithCacheSize(10),
		nodestore.WithCompression("lz4", 1),
	)

	db, err := nodestore.Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	node := testNode("persisted through pebble")
	require.NoError(t, db.Store(ctx, node))
	require.NoError(t, db.Sync())

	fetched, err := db.Fetch(ctx, node.Hash)
	require.NoError(t, err)
	require.Equal(t, node.Data, fetched.Data)
}

func TestConfigValidate(t *testing.T) {
	cfg := nodestore.DefaultConfig()
	cfg.Backend = "bogus"
	require.Error(t, cfg.Validate())

	cfg = nodestore.DefaultConfig()
	cfg.Path = ""
	require.Error(t, cfg.Validate())

	// Memory backends need no path.
	cfg = nodestore.DefaultConfig()
	cfg.Backend = "memory"
	cfg.Path = ""
	require.NoError(t, cfg.Validate())
}

func TestNodeHashMatchesData(t *testing.T) {
	node := testNode("payload")
	require.Equal(t, nodestore.Hash256FromData([]byte("payload")), node.Hash)
	require.True(t, node.IsValid())

	tampered := testNode("payload")
	tampered.Data = []byte("other")
	require.False(t, tampered.IsValid())
}
