package service

import (
	"encoding/hex"
	"encoding/json"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx/state"
)

// Query errors
var (
	ErrAccountNotFound     = ErrNotFound("account")
	ErrTokenAcctNotFound   = ErrNotFound("token account")
	ErrMarketplaceNotFound = ErrNotFound("marketplace")
	ErrListingNotFound     = ErrNotFound("listing")
)

// ErrNotFound is a typed not-found error for ledger queries.
type ErrNotFound string

func (e ErrNotFound) Error() string {
	return string(e) + " not found"
}

// queryLedger picks the ledger a query runs against. Queries default to the
// validated ledger; current selects the open one.
func (s *Service) queryLedger(current bool) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if current {
		if s.openLedger == nil {
			return nil, ErrNoOpenLedger
		}
		return s.openLedger, nil
	}
	if s.validatedLedger == nil {
		return nil, ErrLedgerNotFound
	}
	return s.validatedLedger, nil
}

// AccountInfo describes an account root for clients.
type AccountInfo struct {
	Account    string `json:"account"`
	Balance    uint64 `json:"balance"`
	OwnerCount uint32 `json:"owner_count"`
	LedgerSeq  uint32 `json:"ledger_seq"`
}

// GetAccountInfo returns the account root for an address.
func (s *Service) GetAccountInfo(addr string, current bool) (*AccountInfo, error) {
	acct, err := address.Decode(addr)
	if err != nil {
		return nil, err
	}
	l, err := s.queryLedger(current)
	if err != nil {
		return nil, err
	}

	data, err := l.State.Read(pda.Account(acct))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrAccountNotFound
	}

	root, err := state.ParseAccountRoot(data)
	if err != nil {
		return nil, err
	}
	return &AccountInfo{
		Account:    addr,
		Balance:    root.Balance,
		OwnerCount: root.OwnerCount,
		LedgerSeq:  l.Sequence(),
	}, nil
}

// TokenAccountInfo describes a token account for clients.
type TokenAccountInfo struct {
	Owner           string `json:"owner"`
	Mint            string `json:"mint"`
	Amount          uint64 `json:"amount"`
	Delegate        string `json:"delegate,omitempty"`
	DelegatedAmount uint64 `json:"delegated_amount,omitempty"`
	Frozen          bool   `json:"frozen"`
	LedgerSeq       uint32 `json:"ledger_seq"`
}

// GetTokenAccountInfo returns the token account for an owner and mint.
func (s *Service) GetTokenAccountInfo(owner, mint string, current bool) (*TokenAccountInfo, error) {
	ownerAddr, err := address.Decode(owner)
	if err != nil {
		return nil, err
	}
	mintAddr, err := address.Decode(mint)
	if err != nil {
		return nil, err
	}
	l, err := s.queryLedger(current)
	if err != nil {
		return nil, err
	}

	data, err := l.State.Read(pda.TokenAccount(ownerAddr, mintAddr))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrTokenAcctNotFound
	}

	ta, err := state.ParseTokenAccount(data)
	if err != nil {
		return nil, err
	}

	info := &TokenAccountInfo{
		Owner:           owner,
		Mint:            mint,
		Amount:          ta.Amount,
		DelegatedAmount: ta.DelegatedAmount,
		Frozen:          ta.Frozen,
		LedgerSeq:       l.Sequence(),
	}
	if ta.Delegate != nil {
		info.Delegate = hex.EncodeToString(ta.Delegate[:])
	}
	return info, nil
}

// MarketplaceInfo describes a marketplace entry for clients.
type MarketplaceInfo struct {
	Key       string `json:"key"`
	Admin     string `json:"admin"`
	Name      string `json:"name"`
	FeeBps    uint16 `json:"fee_bps"`
	FeeVault  string `json:"fee_vault"`
	LedgerSeq uint32 `json:"ledger_seq"`
}

// GetMarketplaceInfo returns the marketplace derived from an admin and
// name.
func (s *Service) GetMarketplaceInfo(admin, name string, current bool) (*MarketplaceInfo, error) {
	adminAddr, err := address.Decode(admin)
	if err != nil {
		return nil, err
	}
	l, err := s.queryLedger(current)
	if err != nil {
		return nil, err
	}

	k, _ := pda.Marketplace(adminAddr, name)
	data, err := l.State.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrMarketplaceNotFound
	}

	mp, err := state.ParseMarketplace(data)
	if err != nil {
		return nil, err
	}
	return &MarketplaceInfo{
		Key:       hex.EncodeToString(k.Key[:]),
		Admin:     admin,
		Name:      mp.Name,
		FeeBps:    mp.FeeBps,
		FeeVault:  address.Encode(mp.FeeVault),
		LedgerSeq: l.Sequence(),
	}, nil
}

// ListingInfo describes a listing entry for clients.
type ListingInfo struct {
	Marketplace     string `json:"marketplace"`
	Seller          string `json:"seller"`
	Mint            string `json:"mint"`
	Price           uint64 `json:"price"`
	Mode            string `json:"mode"`
	Vault           string `json:"vault,omitempty"`
	DelegatedAmount uint64 `json:"delegated_amount,omitempty"`
	LedgerSeq       uint32 `json:"ledger_seq"`
}

// GetListingInfo returns the listing for a marketplace admin, marketplace
// name, and mint.
func (s *Service) GetListingInfo(admin, name, mint string, current bool) (*ListingInfo, error) {
	adminAddr, err := address.Decode(admin)
	if err != nil {
		return nil, err
	}
	mintAddr, err := address.Decode(mint)
	if err != nil {
		return nil, err
	}
	l, err := s.queryLedger(current)
	if err != nil {
		return nil, err
	}

	mk, _ := pda.Marketplace(adminAddr, name)
	lk, _ := pda.Listing(mk.Key, mintAddr)

	data, err := l.State.Read(lk)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrListingNotFound
	}

	listing, err := state.ParseListing(data)
	if err != nil {
		return nil, err
	}

	info := &ListingInfo{
		Marketplace: hex.EncodeToString(listing.Marketplace[:]),
		Seller:      address.Encode(listing.Seller),
		Mint:        mint,
		Price:       listing.Price,
		Mode:        listing.Mode.String(),
		LedgerSeq:   l.Sequence(),
	}
	switch listing.Mode {
	case state.ModeCustodial:
		info.Vault = hex.EncodeToString(listing.Vault[:])
	case state.ModeDelegated:
		info.DelegatedAmount = listing.DelegatedAmount
	}
	return info, nil
}

// TxInfo describes one applied transaction for clients.
type TxInfo struct {
	Hash      string          `json:"hash"`
	LedgerSeq uint32          `json:"ledger_seq"`
	Result    string          `json:"result"`
	Account   string          `json:"account"`
	Validated bool            `json:"validated"`
	Tx        json.RawMessage `json:"tx,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// GetTransaction looks up an applied transaction by its hex hash.
func (s *Service) GetTransaction(hash string) (*TxInfo, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) != 32 {
		return nil, ErrTxNotFound
	}
	var h [32]byte
	copy(h[:], raw)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.txIndex[h]
	if !ok {
		return nil, ErrTxNotFound
	}

	info := &TxInfo{
		Hash:      hash,
		LedgerSeq: rec.ledgerSeq,
		Result:    rec.result.String(),
		Account:   rec.account,
		Validated: rec.validated,
		Tx:        rec.raw,
	}
	if rec.meta != nil {
		if meta, err := json.Marshal(rec.meta); err == nil {
			info.Meta = meta
		}
	}
	return info, nil
}
