package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/solmint/marketd/internal/codec/address"
)

// GenesisJSON represents the JSON genesis file format.
type GenesisJSON struct {
	CloseTime int64                `json:"close_time,omitempty"`
	Accounts  []GenesisAccountJSON `json:"accounts"`
}

// GenesisAccountJSON represents an account to create at genesis.
type GenesisAccountJSON struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// GenesisState holds the parsed genesis accounts ready for ledger creation.
type GenesisState struct {
	CloseTime time.Time
	Accounts  map[string]uint64
}

// LoadGenesisFile loads and parses a genesis JSON file.
func LoadGenesisFile(path string) (*GenesisState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read genesis file %s", path)
	}

	var genesis GenesisJSON
	if err := json.Unmarshal(data, &genesis); err != nil {
		return nil, errors.Wrapf(err, "failed to parse genesis file %s", path)
	}

	if len(genesis.Accounts) == 0 {
		return nil, errors.Errorf("genesis file %s defines no accounts", path)
	}

	state := &GenesisState{
		Accounts: make(map[string]uint64, len(genesis.Accounts)),
	}
	if genesis.CloseTime > 0 {
		state.CloseTime = time.Unix(genesis.CloseTime, 0).UTC()
	} else {
		state.CloseTime = time.Now().UTC()
	}

	for i, account := range genesis.Accounts {
		if _, err := address.Decode(account.Address); err != nil {
			return nil, errors.Wrapf(err, "genesis account %d has invalid address %q", i, account.Address)
		}
		if _, dup := state.Accounts[account.Address]; dup {
			return nil, errors.Errorf("genesis account %s listed twice", account.Address)
		}
		state.Accounts[account.Address] = account.Balance
	}

	return state, nil
}
