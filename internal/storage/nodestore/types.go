// Package nodestore provides content-addressable persistent storage for
// ledger objects. Nodes are keyed by the hash of their serialized data and
// fronted by an expiring LRU cache, with pluggable backends for the actual
// persistence.
package nodestore

import (
	"context"
	"fmt"
	"time"

	"github.com/solmint/marketd/internal/crypto/common"
)

// Hash256 is a content hash used as a nodestore key.
type Hash256 [32]byte

// Blob is a serialized ledger object.
type Blob []byte

// Hash256FromData computes the content hash of a blob.
func Hash256FromData(data Blob) Hash256 {
	return Hash256(common.Sha512Half(data))
}

// NodeType represents the kind of ledger object stored in the nodestore.
type NodeType uint32

const (
	// NodeUnknown represents an unknown or invalid node type
	NodeUnknown NodeType = 0
	// NodeLedger represents a sealed ledger header
	NodeLedger NodeType = 1
	// NodeEntry represents a ledger state entry
	NodeEntry NodeType = 3
	// NodeTransaction represents an applied transaction record
	NodeTransaction NodeType = 4
)

// String returns the string representation of the NodeType.
func (nt NodeType) String() string {
	switch nt {
	case NodeUnknown:
		return "NodeUnknown"
	case NodeLedger:
		return "NodeLedger"
	case NodeEntry:
		return "NodeEntry"
	case NodeTransaction:
		return "NodeTransaction"
	default:
		return fmt.Sprintf("NodeType(%d)", uint32(nt))
	}
}

// Node is a stored ledger object with its metadata.
type Node struct {
	Type      NodeType // Kind of ledger object
	Hash      Hash256  // Content hash (serves as the key)
	Data      Blob     // Serialized object data
	LedgerSeq uint32   // Ledger sequence the object belongs to
	CreatedAt time.Time
}

// NewNode creates a new Node with the specified type and data.
// The hash is computed from the data.
func NewNode(nodeType NodeType, data Blob) *Node {
	return &Node{
		Type:      nodeType,
		Hash:      Hash256FromData(data),
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// Size returns the size of the node's data in bytes.
func (n *Node) Size() int {
	return len(n.Data)
}

// IsValid reports whether the node has data matching its hash.
func (n *Node) IsValid() bool {
	if n == nil {
		return false
	}
	if n.Type == NodeUnknown || len(n.Data) == 0 {
		return false
	}
	return n.Hash == Hash256FromData(n.Data)
}

// Database is the main nodestore interface.
type Database interface {
	// Store persists a node.
	Store(ctx context.Context, node *Node) error

	// Fetch retrieves a node by its hash. A missing node returns (nil, nil).
	Fetch(ctx context.Context, hash Hash256) (*Node, error)

	// StoreBatch stores multiple nodes in a single backend operation.
	StoreBatch(ctx context.Context, nodes []*Node) error

	// FetchBatch retrieves multiple nodes; missing entries are nil.
	FetchBatch(ctx context.Context, hashes []Hash256) ([]*Node, error)

	// Stats returns performance statistics.
	Stats() Statistics

	// Sync forces pending writes to be flushed to disk.
	Sync() error

	// Close gracefully closes the database and releases resources.
	Close() error
}

// Statistics holds performance metrics for the nodestore.
type Statistics struct {
	Reads       uint64
	CacheHits   uint64
	CacheMisses uint64
	ReadBytes   uint64

	Writes     uint64
	WriteBytes uint64

	CacheSize    uint64
	CacheMaxSize uint64

	BackendName string
}

// String returns a formatted representation of the statistics.
func (s Statistics) String() string {
	hitRate := float64(0)
	if s.Reads > 0 {
		hitRate = float64(s.CacheHits) / float64(s.Reads) * 100
	}
	return fmt.Sprintf("backend=%s reads=%d (%.2f%% cache hits) writes=%d cache=%d/%d",
		s.BackendName, s.Reads, hitRate, s.Writes, s.CacheSize, s.CacheMaxSize)
}

// Status represents the status of a backend operation.
type Status int

const (
	// OK indicates the operation was successful
	OK Status = iota
	// NotFound indicates the requested object was not found
	NotFound
	// DataCorrupt indicates the stored data is corrupted
	DataCorrupt
	// BackendError indicates an error in the storage backend
	BackendError
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case DataCorrupt:
		return "DataCorrupt"
	case BackendError:
		return "BackendError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Backend defines the interface for storage backends.
type Backend interface {
	// Name returns a human-readable name for this backend.
	Name() string

	// Open opens the backend for use.
	Open(createIfMissing bool) error

	// Close closes the backend and releases resources.
	Close() error

	// IsOpen returns true if the backend is currently open.
	IsOpen() bool

	// Fetch retrieves a single object by key.
	Fetch(key Hash256) (*Node, Status)

	// FetchBatch retrieves multiple objects.
	FetchBatch(keys []Hash256) ([]*Node, Status)

	// Store saves a single object.
	Store(node *Node) Status

	// StoreBatch saves multiple objects in one write.
	StoreBatch(nodes []*Node) Status

	// Sync forces pending writes to be flushed.
	Sync() Status

	// ForEach iterates over all objects in the backend.
	ForEach(fn func(*Node) error) error
}
