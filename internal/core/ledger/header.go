package ledger

import (
	"encoding/binary"
	"time"

	"github.com/solmint/marketd/internal/crypto/common"
)

// Header identifies one ledger in the chain. The hash covers the sequence,
// the parent hash, and the state and transaction hashes, so any divergence
// in applied history produces a different chain of headers.
type Header struct {
	Sequence   uint32    `json:"sequence"`
	Hash       [32]byte  `json:"hash"`
	ParentHash [32]byte  `json:"parent_hash"`
	StateHash  [32]byte  `json:"state_hash"`
	TxHash     [32]byte  `json:"tx_hash"`
	CloseTime  time.Time `json:"close_time"`
	Closed     bool      `json:"closed"`
	Validated  bool      `json:"validated"`
}

// ComputeHash derives the header hash from the sealed fields.
func (h *Header) ComputeHash() [32]byte {
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], h.Sequence)

	var closeTime [8]byte
	binary.BigEndian.PutUint64(closeTime[:], uint64(h.CloseTime.Unix()))

	return common.Sha512Half(
		[]byte("LWR\x00"),
		seq[:],
		h.ParentHash[:],
		h.StateHash[:],
		h.TxHash[:],
		closeTime[:],
	)
}
