package nodestore

import (
	"sync"
	"sync/atomic"
)

// MemoryBackend is a thread-safe in-memory Backend for tests and
// development.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[Hash256]*Node

	open int64
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[Hash256]*Node),
	}
}

// NewMemoryBackendFromConfig creates a new in-memory backend from config.
// The config is ignored but required for the BackendFactory signature.
func NewMemoryBackendFromConfig(config *Config) (Backend, error) {
	return NewMemoryBackend(), nil
}

// Name returns the name of this backend.
func (m *MemoryBackend) Name() string {
	return "memory"
}

// Open opens the backend for use.
func (m *MemoryBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&m.open, 0, 1) {
		return ErrBackendClosed
	}
	return nil
}

// Close closes the backend and clears all data.
func (m *MemoryBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&m.open, 1, 0) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[Hash256]*Node)
	return nil
}

// IsOpen returns true if the backend is currently open.
func (m *MemoryBackend) IsOpen() bool {
	return atomic.LoadInt64(&m.open) != 0
}

// Fetch retrieves a single object by key.
func (m *MemoryBackend) Fetch(key Hash256) (*Node, Status) {
	if !m.IsOpen() {
		return nil, BackendError
	}

	m.mu.RLock()
	node, found := m.data[key]
	m.mu.RUnlock()

	if !found {
		return nil, NotFound
	}
	return copyNode(node), OK
}

// FetchBatch retrieves multiple objects; missing entries are nil.
func (m *MemoryBackend) FetchBatch(keys []Hash256) ([]*Node, Status) {
	if !m.IsOpen() {
		return nil, BackendError
	}

	results := make([]*Node, len(keys))

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, key := range keys {
		if node, found := m.data[key]; found {
			results[i] = copyNode(node)
		}
	}
	return results, OK
}

// Store saves a single object.
func (m *MemoryBackend) Store(node *Node) Status {
	if node == nil || !m.IsOpen() {
		return BackendError
	}

	m.mu.Lock()
	m.data[node.Hash] = copyNode(node)
	m.mu.Unlock()
	return OK
}

// StoreBatch saves multiple objects.
func (m *MemoryBackend) StoreBatch(nodes []*Node) Status {
	if !m.IsOpen() {
		return BackendError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, node := range nodes {
		if node == nil {
			continue
		}
		m.data[node.Hash] = copyNode(node)
	}
	return OK
}

// Sync is a no-op for the memory backend.
func (m *MemoryBackend) Sync() Status {
	if !m.IsOpen() {
		return BackendError
	}
	return OK
}

// ForEach iterates over all objects in the backend.
func (m *MemoryBackend) ForEach(fn func(*Node) error) error {
	if !m.IsOpen() {
		return ErrBackendClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, node := range m.data {
		if err := fn(copyNode(node)); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of nodes stored in the backend.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	size := len(m.data)
	m.mu.RUnlock()
	return size
}

// copyNode returns a deep copy so callers cannot mutate stored data.
func copyNode(node *Node) *Node {
	c := &Node{
		Type:      node.Type,
		Hash:      node.Hash,
		Data:      make(Blob, len(node.Data)),
		LedgerSeq: node.LedgerSeq,
		CreatedAt: node.CreatedAt,
	}
	copy(c.Data, node.Data)
	return c
}

func init() {
	RegisterBackend("memory", NewMemoryBackendFromConfig)
}
