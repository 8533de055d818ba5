package nodestore

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/solmint/marketd/internal/storage/nodestore/compression"
)

// LevelBackend stores nodes in a LevelDB instance. It shares the pebble
// backend's value encoding so data files stay interchangeable between the
// two when migrating a node.
type LevelBackend struct {
	db         *leveldb.DB
	compressor compression.Compressor
	config     *Config

	open int64
}

// NewLevelBackend creates a new LevelDB backend.
func NewLevelBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	compressor, err := compression.Get(config.Compressor)
	if err != nil {
		return nil, errors.Wrapf(err, "compressor %s", config.Compressor)
	}

	return &LevelBackend{
		compressor: compressor,
		config:     config,
	}, nil
}

// Name returns the name of this backend.
func (l *LevelBackend) Name() string {
	return "leveldb(" + l.config.Path + ")"
}

// Open opens the backend for use.
func (l *LevelBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&l.open, 0, 1) {
		return errors.New("backend already open")
	}

	db, err := leveldb.OpenFile(l.config.Path, &opt.Options{
		ErrorIfMissing: !createIfMissing,
		// Values are already lz4-compressed by the application.
		Compression: opt.NoCompression,
	})
	if err != nil {
		atomic.StoreInt64(&l.open, 0)
		return errors.Wrapf(err, "open leveldb at %s", l.config.Path)
	}
	l.db = db

	return nil
}

// Close closes the backend and releases resources.
func (l *LevelBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&l.open, 1, 0) {
		return nil
	}

	if l.db != nil {
		err := l.db.Close()
		l.db = nil
		return err
	}
	return nil
}

// IsOpen returns true if the backend is currently open.
func (l *LevelBackend) IsOpen() bool {
	return atomic.LoadInt64(&l.open) != 0
}

// Fetch retrieves a single object by key.
func (l *LevelBackend) Fetch(key Hash256) (*Node, Status) {
	if !l.IsOpen() {
		return nil, BackendError
	}

	value, err := l.db.Get(key[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}

	node, err := l.decodeNode(key, value)
	if err != nil {
		return nil, DataCorrupt
	}
	return node, OK
}

// FetchBatch retrieves multiple objects; missing entries are nil.
func (l *LevelBackend) FetchBatch(keys []Hash256) ([]*Node, Status) {
	if !l.IsOpen() {
		return nil, BackendError
	}

	results := make([]*Node, len(keys))
	for i, key := range keys {
		node, status := l.Fetch(key)
		if status == OK {
			results[i] = node
		} else if status != NotFound {
			return nil, status
		}
	}
	return results, OK
}

// Store saves a single object.
func (l *LevelBackend) Store(node *Node) Status {
	if node == nil || !l.IsOpen() {
		return BackendError
	}

	value, err := l.encodeNode(node)
	if err != nil {
		return BackendError
	}
	if err := l.db.Put(node.Hash[:], value, nil); err != nil {
		return BackendError
	}
	return OK
}

// StoreBatch saves multiple objects in one write batch.
func (l *LevelBackend) StoreBatch(nodes []*Node) Status {
	if !l.IsOpen() {
		return BackendError
	}
	if len(nodes) == 0 {
		return OK
	}

	batch := new(leveldb.Batch)
	for _, node := range nodes {
		if node == nil {
			continue
		}
		value, err := l.encodeNode(node)
		if err != nil {
			return BackendError
		}
		batch.Put(node.Hash[:], value)
	}

	if err := l.db.Write(batch, nil); err != nil {
		return BackendError
	}
	return OK
}

// Sync forces pending writes to be flushed.
func (l *LevelBackend) Sync() Status {
	if !l.IsOpen() {
		return BackendError
	}
	// LevelDB has no explicit flush; an fsynced empty write forces the
	// journal to disk.
	if err := l.db.Write(new(leveldb.Batch), &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}

// ForEach iterates over all objects in the backend.
func (l *LevelBackend) ForEach(fn func(*Node) error) error {
	if !l.IsOpen() {
		return ErrBackendClosed
	}

	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		if len(key) != 32 {
			continue
		}
		var hash Hash256
		copy(hash[:], key)

		node, err := l.decodeNode(hash, iter.Value())
		if err != nil {
			continue
		}
		if err := fn(node); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (l *LevelBackend) encodeNode(node *Node) ([]byte, error) {
	data := []byte(node.Data)
	compressed := false

	if len(node.Data) > minCompressionSize && l.compressor.Name() != "none" {
		cd, err := l.compressor.Compress(node.Data, l.config.CompressionLevel)
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

func (l *LevelBackend) decodeNode(hash Hash256, data []byte) (*Node, error) {
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
		decompressed, err := l.compressor.Decompress(nodeData)
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
	RegisterBackend("leveldb", NewLevelBackend)
}
