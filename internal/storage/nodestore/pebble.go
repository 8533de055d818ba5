package nodestore

import (
	"encoding/binary"
	"os"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/storage/nodestore/compression"
)

const (
	// type + ledgerSeq + timestamp + dataLen + compressed flag
	nodeHeaderSize = 4 + 4 + 8 + 4 + 1

	// Values below this size are stored uncompressed.
	minCompressionSize = 128
)

// PebbleBackend stores nodes in a PebbleDB instance. Point lookups by hash
// dominate the workload, so every level carries a bloom filter and value
// compression happens in the application rather than the table format.
type PebbleBackend struct {
	db         *pebble.DB
	compressor compression.Compressor
	config     *Config

	open int64
}

// NewPebbleBackend creates a new PebbleDB backend.
func NewPebbleBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	compressor, err := compression.Get(config.Compressor)
	if err != nil {
		return nil, errors.Wrapf(err, "compressor %s", config.Compressor)
	}

	return &PebbleBackend{
		compressor: compressor,
		config:     config,
	}, nil
}

// Name returns the name of this backend.
func (p *PebbleBackend) Name() string {
	return "pebble(" + p.config.Path + ")"
}

// Open opens the backend for use.
func (p *PebbleBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&p.open, 0, 1) {
		return errors.New("backend already open")
	}

	if createIfMissing {
		if err := os.MkdirAll(p.config.Path, 0755); err != nil {
			atomic.StoreInt64(&p.open, 0)
			return errors.Wrapf(err, "create directory %s", p.config.Path)
		}
	}

	opts := &pebble.Options{
		MaxOpenFiles: 10000,
		MemTableSize: 64 << 20,
		Levels:       make([]pebble.LevelOptions, 7),
	}
	for i := range opts.Levels {
		opts.Levels[i] = pebble.LevelOptions{
			BlockSize:      32 << 10,
			FilterPolicy:   bloom.FilterPolicy(10),
			FilterType:     pebble.TableFilter,
			TargetFileSize: int64(8<<20) << uint(i),
			Compression:    pebble.NoCompression,
		}
		if opts.Levels[i].TargetFileSize > 256<<20 {
			opts.Levels[i].TargetFileSize = 256 << 20
		}
	}

	db, err := pebble.Open(p.config.Path, opts)
	if err != nil {
		atomic.StoreInt64(&p.open, 0)
		return errors.Wrapf(err, "open pebble at %s", p.config.Path)
	}
	p.db = db

	return nil
}

// Close closes the backend and releases resources.
func (p *PebbleBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&p.open, 1, 0) {
		return nil
	}

	var err error
	if p.db != nil {
		if flushErr := p.db.Flush(); flushErr != nil {
			err = flushErr
		}
		if closeErr := p.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		p.db = nil
	}
	return err
}

// IsOpen returns true if the backend is currently open.
func (p *PebbleBackend) IsOpen() bool {
	return atomic.LoadInt64(&p.open) != 0
}

// Fetch retrieves a single object by key.
func (p *PebbleBackend) Fetch(key Hash256) (*Node, Status) {
	if !p.IsOpen() {
		return nil, BackendError
	}

	value, closer, err := p.db.Get(key[:])
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}
	defer closer.Close()

	node, err := p.decodeNode(key, value)
	if err != nil {
		return nil, DataCorrupt
	}
	return node, OK
}

// FetchBatch retrieves multiple objects; missing entries are nil.
func (p *PebbleBackend) FetchBatch(keys []Hash256) ([]*Node, Status) {
	if !p.IsOpen() {
		return nil, BackendError
	}

	results := make([]*Node, len(keys))
	for i, key := range keys {
		node, status := p.Fetch(key)
		if status == OK {
			results[i] = node
		} else if status != NotFound {
			return nil, status
		}
	}
	return results, OK
}

// Store saves a single object.
func (p *PebbleBackend) Store(node *Node) Status {
	if node == nil || !p.IsOpen() {
		return BackendError
	}

	value, err := p.encodeNode(node)
	if err != nil {
		return BackendError
	}
	if err := p.db.Set(node.Hash[:], value, pebble.NoSync); err != nil {
		return BackendError
	}
	return OK
}

// StoreBatch saves multiple objects in one write batch.
func (p *PebbleBackend) StoreBatch(nodes []*Node) Status {
	if !p.IsOpen() {
		return BackendError
	}
	if len(nodes) == 0 {
		return OK
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, node := range nodes {
		if node == nil {
			continue
		}
		value, err := p.encodeNode(node)
		if err != nil {
			return BackendError
		}
		if err := batch.Set(node.Hash[:], value, nil); err != nil {
			return BackendError
		}
	}

	if err := batch.Commit(pebble.NoSync); err != nil {
		return BackendError
	}
	return OK
}

// Sync forces pending writes to be flushed.
func (p *PebbleBackend) Sync() Status {
	if !p.IsOpen() {
		return BackendError
	}
	if err := p.db.Flush(); err != nil {
		return BackendError
	}
	return OK
}

// ForEach iterates over all objects in the backend.
func (p *PebbleBackend) ForEach(fn func(*Node) error) error {
	if !p.IsOpen() {
		return ErrBackendClosed
	}

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != 32 {
			continue
		}
		var hash Hash256
		copy(hash[:], key)

		node, err := p.decodeNode(hash, iter.Value())
		if err != nil {
			continue
		}
		if err := fn(node); err != nil {
			return err
		}
	}
	return iter.Error()
}

// encodeNode serializes a node for storage, compressing when it pays off.
func (p *PebbleBackend) encodeNode(node *Node) ([]byte, error) {
	data := []byte(node.Data)
	compressed := false

	if len(node.Data) > minCompressionSize && p.compressor.Name() != "none" {
		cd, err := p.compressor.Compress(node.Data, p.config.CompressionLevel)
		if err == nil && len(cd) < len(node.Data)*9/10 {
			data = cd
			compressed = true
		}
	}

	buf := make([]byte, nodeHeaderSize+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(node.Type))
	binary.LittleEndian.PutUint32(buf[4:8], node.LedgerSeq)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(node.CreatedAt.UnixNano()))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(data)))
	copy(buf[20:], data)
	if compressed {
		buf[20+len(data)] = 1
	}
	return buf, nil
}

// decodeNode deserializes a stored node.
func (p *PebbleBackend) decodeNode(hash Hash256, data []byte) (*Node, error) {
	if len(data) < nodeHeaderSize {
		return nil, errors.Errorf("invalid data size: %d", len(data))
	}

	nodeType := NodeType(binary.LittleEndian.Uint32(data[0:4]))
	ledgerSeq := binary.LittleEndian.Uint32(data[4:8])
	createdNanos := int64(binary.LittleEndian.Uint64(data[8:16]))
	dataLength := int(binary.LittleEndian.Uint32(data[16:20]))

	if 20+dataLength+1 > len(data) {
		return nil, errors.Errorf("invalid data length: %d", dataLength)
	}

	nodeData := data[20 : 20+dataLength]
	if data[20+dataLength] == 1 {
		decompressed, err := p.compressor.Decompress(nodeData)
		if err != nil {
			return nil, errors.Wrap(err, "decompress")
		}
		nodeData = decompressed
	}

	blob := make(Blob, len(nodeData))
	copy(blob, nodeData)

	return &Node{
		Type:      nodeType,
		Hash:      hash,
		Data:      blob,
		LedgerSeq: ledgerSeq,
		CreatedAt: time.Unix(0, createdNanos),
	}, nil
}

func init() {
	RegisterBackend("pebble", NewPebbleBackend)
}
