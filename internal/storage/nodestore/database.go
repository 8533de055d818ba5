package nodestore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DatabaseImpl wraps a Backend behind the Database interface, adding the
// cache and statistics.
type DatabaseImpl struct {
	backend Backend
	cache   *Cache
	stats   struct {
		reads       uint64
		cacheHits   uint64
		cacheMisses uint64
		writes      uint64
		readBytes   uint64
		writeBytes  uint64
	}
}

// Open creates and opens a Database for the given configuration.
func Open(config *Config) (*DatabaseImpl, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend, err := CreateBackend(config.Backend, config)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(config.CreateIfMissing); err != nil {
		return nil, err
	}

	return NewDatabase(backend, config.CacheSize, config.CacheTTL), nil
}

// NewDatabase creates a new Database from an already-open Backend.
func NewDatabase(backend Backend, cacheSize int, cacheTTL time.Duration) *DatabaseImpl {
	var cache *Cache
	if cacheSize > 0 {
		cache = NewCache(cacheSize, cacheTTL)
	}
	return &DatabaseImpl{
		backend: backend,
		cache:   cache,
	}
}

// Store persists a node.
func (d *DatabaseImpl) Store(ctx context.Context, node *Node) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if status := d.backend.Store(node); status != OK {
		return errors.Errorf("store failed: %s", status)
	}

	atomic.AddUint64(&d.stats.writes, 1)
	atomic.AddUint64(&d.stats.writeBytes, uint64(len(node.Data)))

	if d.cache != nil {
		d.cache.Put(node)
	}
	return nil
}

// Fetch retrieves a node by its hash. A missing node returns (nil, nil).
func (d *DatabaseImpl) Fetch(ctx context.Context, hash Hash256) (*Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	atomic.AddUint64(&d.stats.reads, 1)

	if d.cache != nil {
		if node, found := d.cache.Get(hash); found {
			atomic.AddUint64(&d.stats.cacheHits, 1)
			return node, nil
		}
		atomic.AddUint64(&d.stats.cacheMisses, 1)
	}

	node, status := d.backend.Fetch(hash)
	if status == NotFound {
		return nil, nil
	}
	if status != OK {
		return nil, errors.Errorf("fetch failed: %s", status)
	}

	if node != nil {
		atomic.AddUint64(&d.stats.readBytes, uint64(len(node.Data)))
		if d.cache != nil {
			d.cache.Put(node)
		}
	}
	return node, nil
}

// StoreBatch stores multiple nodes in one backend write.
func (d *DatabaseImpl) StoreBatch(ctx context.Context, nodes []*Node) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if status := d.backend.StoreBatch(nodes); status != OK {
		return errors.Errorf("store batch failed: %s", status)
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}
		atomic.AddUint64(&d.stats.writes, 1)
		atomic.AddUint64(&d.stats.writeBytes, uint64(len(node.Data)))
		if d.cache != nil {
			d.cache.Put(node)
		}
	}
	return nil
}

// FetchBatch retrieves multiple nodes; missing entries are nil.
func (d *DatabaseImpl) FetchBatch(ctx context.Context, hashes []Hash256) ([]*Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	nodes, status := d.backend.FetchBatch(hashes)
	if status != OK && status != NotFound {
		return nil, errors.Errorf("fetch batch failed: %s", status)
	}
	return nodes, nil
}

// Stats returns performance statistics.
func (d *DatabaseImpl) Stats() Statistics {
	stats := Statistics{
		Reads:       atomic.LoadUint64(&d.stats.reads),
		CacheHits:   atomic.LoadUint64(&d.stats.cacheHits),
		CacheMisses: atomic.LoadUint64(&d.stats.cacheMisses),
		ReadBytes:   atomic.LoadUint64(&d.stats.readBytes),
		Writes:      atomic.LoadUint64(&d.stats.writes),
		WriteBytes:  atomic.LoadUint64(&d.stats.writeBytes),
		BackendName: d.backend.Name(),
	}
	if d.cache != nil {
		stats.CacheSize = uint64(d.cache.Size())
		stats.CacheMaxSize = uint64(d.cache.MaxSize())
	}
	return stats
}

// Sync forces pending writes to disk.
func (d *DatabaseImpl) Sync() error {
	if status := d.backend.Sync(); status != OK {
		return errors.Errorf("sync failed: %s", status)
	}
	return nil
}

// Close gracefully closes the database.
func (d *DatabaseImpl) Close() error {
	return d.backend.Close()
}
