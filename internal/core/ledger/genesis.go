package ledger

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// GenesisConfig describes the first ledger's contents.
type GenesisConfig struct {
	// Accounts maps funded account addresses to their starting balance.
	Accounts map[string]uint64

	// CloseTime is the genesis close time. Zero means time.Now().
	CloseTime time.Time
}

// DefaultGenesisConfig returns an empty genesis.
func DefaultGenesisConfig() GenesisConfig {
	return GenesisConfig{}
}

// NewGenesis builds and seals the genesis ledger.
func NewGenesis(cfg GenesisConfig) (*Ledger, error) {
	stateMap := NewStateMap()

	// Deterministic insertion order so reruns produce the same chain.
	addrs := make([]string, 0, len(cfg.Accounts))
	for addr := range cfg.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		acct, err := address.Decode(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis account %s", addr)
		}
		root := &state.AccountRootData{
			Account: acct,
			Balance: cfg.Accounts[addr],
		}
		data, err := state.SerializeAccountRoot(root)
		if err != nil {
			return nil, errors.Wrapf(err, "serialize genesis account %s", addr)
		}
		if err := stateMap.Insert(pda.Account(acct), data); err != nil {
			return nil, errors.Wrapf(err, "insert genesis account %s", addr)
		}
	}

	closeTime := cfg.CloseTime
	if closeTime.IsZero() {
		closeTime = time.Now()
	}

	l := &Ledger{
		State: stateMap,
		Header: Header{
			Sequence: 1,
		},
	}
	if err := l.Close(closeTime); err != nil {
		return nil, err
	}
	if err := l.SetValidated(); err != nil {
		return nil, err
	}
	return l, nil
}
