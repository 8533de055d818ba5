package service

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/storage/history"
	"github.com/solmint/marketd/internal/storage/nodestore"
)

// persistLedger writes a sealed ledger to the nodestore: the header as one
// node and every state entry as its own content-addressed node. Caller
// holds the service mutex.
func (s *Service) persistLedger(ctx context.Context, l *ledger.Ledger) error {
	headerData, err := json.Marshal(l.Header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}
	headerNode := nodestore.NewNode(nodestore.NodeLedger, headerData)
	headerNode.LedgerSeq = l.Sequence()

	nodes := []*nodestore.Node{headerNode}

	for _, k := range l.State.Entries() {
		data, err := l.State.Read(k)
		if err != nil {
			return err
		}
		node := nodestore.NewNode(nodestore.NodeEntry, encodeEntryNode(uint16(k.Type), k.Key, data))
		node.LedgerSeq = l.Sequence()
		nodes = append(nodes, node)
	}

	if err := s.nodeStore.StoreBatch(ctx, nodes); err != nil {
		return errors.Wrap(err, "store ledger nodes")
	}
	return nil
}

// encodeEntryNode frames a state entry for content-addressed storage:
// 2-byte entry type, 32-byte key, then the serialized entry.
func encodeEntryNode(entryType uint16, key [32]byte, data []byte) []byte {
	buf := make([]byte, 2+32+len(data))
	binary.BigEndian.PutUint16(buf[0:2], entryType)
	copy(buf[2:34], key[:])
	copy(buf[34:], data)
	return buf
}

// recordHistory writes one applied transaction to the relational index.
func (s *Service) recordHistory(ctx context.Context, rec *appliedTx) error {
	var meta []byte
	if rec.meta != nil {
		var err error
		meta, err = json.Marshal(rec.meta)
		if err != nil {
			return errors.Wrap(err, "marshal metadata")
		}
	}

	return s.history.Record(ctx, &history.TxRecord{
		Hash:      hex.EncodeToString(rec.hash[:]),
		LedgerSeq: rec.ledgerSeq,
		Account:   rec.account,
		Result:    rec.result.String(),
		RawTxn:    rec.raw,
		Meta:      meta,
		AppliedAt: time.Now(),
	})
}

func formatLedgerRange(min, max uint32) string {
	if min == max {
		return fmt.Sprintf("%d", min)
	}
	return fmt.Sprintf("%d-%d", min, max)
}
