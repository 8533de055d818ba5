// Package service manages the ledger lifecycle: the open ledger accepting
// transactions, the chain of closed ledgers behind it, persistence of
// sealed state, and the queries the RPC layer serves from it.
package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/storage/history"
	"github.com/solmint/marketd/internal/storage/nodestore"
)

// Common errors
var (
	ErrNotStandalone  = errors.New("operation only valid in standalone mode")
	ErrNoOpenLedger   = errors.New("no open ledger")
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrTxNotFound     = errors.New("transaction not found")
)

// Config holds configuration for the ledger service.
type Config struct {
	// Standalone indicates whether the node advances ledgers on demand
	// rather than by consensus.
	Standalone bool

	// Genesis describes the first ledger's contents.
	Genesis ledger.GenesisConfig

	// NodeStore is the persistent storage for sealed ledgers (optional).
	NodeStore nodestore.Database

	// History is the relational transaction index (optional).
	History *history.Store

	// Logger receives service-level events. Defaults to zap.NewNop().
	Logger *zap.Logger
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Standalone: true,
		Genesis:    ledger.DefaultGenesisConfig(),
	}
}

// appliedTx is the in-memory record of one applied transaction.
type appliedTx struct {
	hash      [32]byte
	ledgerSeq uint32
	result    tx.Result
	account   string
	raw       []byte
	meta      *tx.Metadata
	validated bool
}

// Service manages the ledger lifecycle.
type Service struct {
	mu sync.RWMutex

	config Config
	log    *zap.Logger

	nodeStore nodestore.Database
	history   *history.Store

	openLedger      *ledger.Ledger
	closedLedger    *ledger.Ledger
	validatedLedger *ledger.Ledger

	// Closed ledgers by sequence.
	ledgerHistory map[uint32]*ledger.Ledger

	// Applied transactions by hash.
	txIndex map[[32]byte]*appliedTx
}

// New creates a new ledger service.
func New(cfg Config) (*Service, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		config:        cfg,
		log:           log,
		nodeStore:     cfg.NodeStore,
		history:       cfg.History,
		ledgerHistory: make(map[uint32]*ledger.Ledger),
		txIndex:       make(map[[32]byte]*appliedTx),
	}, nil
}

// Start builds the genesis ledger and opens the first ledger on top of it.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genesis, err := ledger.NewGenesis(s.config.Genesis)
	if err != nil {
		return errors.Wrap(err, "create genesis ledger")
	}

	s.closedLedger = genesis
	s.validatedLedger = genesis
	s.ledgerHistory[genesis.Sequence()] = genesis

	open, err := ledger.NewOpen(genesis)
	if err != nil {
		return errors.Wrap(err, "create open ledger")
	}
	s.openLedger = open

	if s.nodeStore != nil {
		if err := s.persistLedger(context.Background(), genesis); err != nil {
			return errors.Wrap(err, "persist genesis ledger")
		}
	}

	s.log.Info("ledger service started",
		zap.Uint32("genesis_seq", genesis.Sequence()),
		zap.Uint32("open_seq", open.Sequence()),
		zap.Int("genesis_accounts", len(s.config.Genesis.Accounts)))

	return nil
}

// Stop flushes persistent storage.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nodeStore != nil {
		if err := s.nodeStore.Sync(); err != nil {
			return err
		}
	}
	s.log.Info("ledger service stopped")
	return nil
}

// SubmitResult contains the outcome of submitting a transaction.
type SubmitResult struct {
	// Result is the engine result code.
	Result tx.Result

	// Applied indicates if the transaction reached the open ledger.
	Applied bool

	// Hash is the transaction hash.
	Hash [32]byte

	// Metadata contains the changes made by an applied transaction.
	Metadata *tx.Metadata

	// Message is a human-readable result message.
	Message string

	// CurrentLedger is the open ledger sequence.
	CurrentLedger uint32

	// ValidatedLedger is the highest validated ledger sequence.
	ValidatedLedger uint32
}

// Submit applies a transaction to the open ledger. A single mutex
// serializes submissions, so instructions never interleave across
// transactions.
func (s *Service) Submit(ctx context.Context, txn *tx.Transaction) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openLedger == nil {
		return nil, ErrNoOpenLedger
	}

	engine := tx.NewEngine(s.openLedger.State, tx.EngineConfig{
		LedgerSequence: s.openLedger.Sequence(),
	})

	applyResult := engine.Apply(txn)
	txHash := txn.Hash()

	result := &SubmitResult{
		Result:        applyResult.Result,
		Applied:       applyResult.Applied,
		Hash:          txHash,
		Metadata:      applyResult.Metadata,
		Message:       applyResult.Message,
		CurrentLedger: s.openLedger.Sequence(),
	}
	if s.validatedLedger != nil {
		result.ValidatedLedger = s.validatedLedger.Sequence()
	}

	if !applyResult.Applied {
		s.log.Debug("transaction rejected",
			zap.String("hash", hex.EncodeToString(txHash[:])),
			zap.String("result", applyResult.Result.String()),
			zap.Int("failed_index", applyResult.FailedIndex))
		return result, nil
	}

	if err := s.openLedger.RecordTx(txHash); err != nil {
		return nil, err
	}

	account := ""
	if len(txn.Instructions) > 0 {
		account = txn.Instructions[0].Signer()
	}
	raw, _ := json.Marshal(txn)

	rec := &appliedTx{
		hash:      txHash,
		ledgerSeq: s.openLedger.Sequence(),
		result:    applyResult.Result,
		account:   account,
		raw:       raw,
		meta:      applyResult.Metadata,
	}
	s.txIndex[txHash] = rec

	if s.history != nil {
		if err := s.recordHistory(ctx, rec); err != nil {
			s.log.Warn("failed to record transaction history",
				zap.String("hash", hex.EncodeToString(txHash[:])),
				zap.Error(err))
		}
	}

	s.log.Info("transaction applied",
		zap.String("hash", hex.EncodeToString(txHash[:])),
		zap.Uint32("ledger_seq", s.openLedger.Sequence()),
		zap.Int("instructions", len(txn.Instructions)))

	return result, nil
}

// AcceptLedger closes the current open ledger, validates it, and opens the
// next one. This is how ledgers advance in standalone mode.
func (s *Service) AcceptLedger(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Standalone {
		return 0, ErrNotStandalone
	}
	if s.openLedger == nil {
		return 0, ErrNoOpenLedger
	}

	closing := s.openLedger
	if err := closing.Close(time.Now()); err != nil {
		return 0, errors.Wrap(err, "close ledger")
	}
	if err := closing.SetValidated(); err != nil {
		return 0, errors.Wrap(err, "validate ledger")
	}

	if s.nodeStore != nil {
		if err := s.persistLedger(ctx, closing); err != nil {
			return 0, errors.Wrap(err, "persist ledger")
		}
	}

	for _, h := range closing.TxHashes {
		if rec, ok := s.txIndex[h]; ok {
			rec.validated = true
		}
	}

	closedSeq := closing.Sequence()
	s.closedLedger = closing
	s.validatedLedger = closing
	s.ledgerHistory[closedSeq] = closing

	open, err := ledger.NewOpen(closing)
	if err != nil {
		return 0, errors.Wrap(err, "create open ledger")
	}
	s.openLedger = open

	s.log.Info("ledger accepted",
		zap.Uint32("closed_seq", closedSeq),
		zap.Int("transactions", len(closing.TxHashes)),
		zap.Int("state_entries", closing.State.Size()))

	return closedSeq, nil
}

// GetOpenLedger returns the current open ledger.
func (s *Service) GetOpenLedger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openLedger
}

// GetValidatedLedger returns the highest validated ledger.
func (s *Service) GetValidatedLedger() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validatedLedger
}

// GetLedgerBySequence returns a closed ledger by its sequence number.
func (s *Service) GetLedgerBySequence(seq uint32) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgerHistory[seq]
	if !ok {
		return nil, ErrLedgerNotFound
	}
	return l, nil
}

// GetCurrentLedgerIndex returns the open ledger sequence.
func (s *Service) GetCurrentLedgerIndex() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openLedger == nil {
		return 0
	}
	return s.openLedger.Sequence()
}

// IsStandalone reports whether the service runs in standalone mode.
func (s *Service) IsStandalone() bool {
	return s.config.Standalone
}

// ServerInfo contains basic server status information.
type ServerInfo struct {
	Standalone          bool     `json:"standalone"`
	OpenLedgerSeq       uint32   `json:"open_ledger_seq"`
	ValidatedLedgerSeq  uint32   `json:"validated_ledger_seq"`
	ValidatedLedgerHash string   `json:"validated_ledger_hash"`
	StateEntries        int      `json:"state_entries"`
	CompleteLedgers     string   `json:"complete_ledgers"`
	InstructionTypes    []string `json:"instruction_types"`
}

// GetServerInfo returns basic server information.
func (s *Service) GetServerInfo() ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := ServerInfo{
		Standalone: s.config.Standalone,
	}

	if s.openLedger != nil {
		info.OpenLedgerSeq = s.openLedger.Sequence()
		info.StateEntries = s.openLedger.State.Size()
	}
	if s.validatedLedger != nil {
		info.ValidatedLedgerSeq = s.validatedLedger.Sequence()
		hash := s.validatedLedger.Hash()
		info.ValidatedLedgerHash = hex.EncodeToString(hash[:])
	}

	if len(s.ledgerHistory) > 0 {
		minSeq := uint32(0xFFFFFFFF)
		maxSeq := uint32(0)
		for seq := range s.ledgerHistory {
			if seq < minSeq {
				minSeq = seq
			}
			if seq > maxSeq {
				maxSeq = seq
			}
		}
		info.CompleteLedgers = formatLedgerRange(minSeq, maxSeq)
	}

	for _, t := range tx.RegisteredTypes() {
		info.InstructionTypes = append(info.InstructionTypes, string(t))
	}

	return info
}
