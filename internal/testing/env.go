package testing

import (
	"encoding/binary"
	"testing"

	"github.com/solmint/marketd/internal/codec/address"
	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/entry"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/market"
	"github.com/solmint/marketd/internal/core/tx/state"
	"github.com/solmint/marketd/internal/core/tx/system"
)

// MasterFunding is the master account's genesis balance.
const MasterFunding = 100_000_000_000_000

// DefaultFunding is the balance Fund gives each account.
const DefaultFunding = 10_000_000_000

// TestEnv manages a test ledger environment for transaction testing.
type TestEnv struct {
	t        *testing.T
	open     *ledger.Ledger
	closed   []*ledger.Ledger
	accounts map[string]*Account

	mintCounter uint32
}

// NewTestEnv creates a test environment with a genesis ledger holding a
// funded master account and an open ledger on top of it.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	master := MasterAccount()
	genesis, err := ledger.NewGenesis(ledger.GenesisConfig{
		Accounts: map[string]uint64{master.Address: MasterFunding},
	})
	if err != nil {
		t.Fatalf("failed to create genesis ledger: %v", err)
	}

	open, err := ledger.NewOpen(genesis)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	env := &TestEnv{
		t:        t,
		open:     open,
		closed:   []*ledger.Ledger{genesis},
		accounts: make(map[string]*Account),
	}
	env.accounts[master.Name] = master
	return env
}

// Master returns the master account.
func (e *TestEnv) Master() *Account {
	return e.accounts["master"]
}

// State returns the open ledger's state map.
func (e *TestEnv) State() *ledger.StateMap {
	return e.open.State
}

// OpenLedger returns the current open ledger.
func (e *TestEnv) OpenLedger() *ledger.Ledger {
	return e.open
}

// Fund funds the given accounts from the master account with the default
// amount.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, DefaultFunding)
	}
}

// FundAmount funds an account with a specific amount.
func (e *TestEnv) FundAmount(acc *Account, amount uint64) {
	e.t.Helper()

	e.accounts[acc.Name] = acc
	result := e.Submit(system.NewTransfer(e.Master().Address, acc.Address, amount))
	if !result.Applied {
		e.t.Fatalf("failed to fund account %s: %s", acc.Name, result.Result)
	}
}

// Submit wraps the given instructions in a transaction and applies it to
// the open ledger.
func (e *TestEnv) Submit(instructions ...tx.Instruction) tx.ApplyResult {
	e.t.Helper()

	txn := tx.NewTransaction(instructions...)
	engine := tx.NewEngine(e.open.State, tx.EngineConfig{
		LedgerSequence: e.open.Sequence(),
	})
	result := engine.Apply(txn)
	if result.Applied {
		if err := e.open.RecordTx(txn.Hash()); err != nil {
			e.t.Fatalf("failed to record transaction: %v", err)
		}
	}
	return result
}

// CloseLedger seals the open ledger and opens its successor.
func (e *TestEnv) CloseLedger() {
	e.t.Helper()

	if err := e.open.Close(e.open.CloseTime()); err != nil {
		e.t.Fatalf("failed to close ledger: %v", err)
	}
	if err := e.open.SetValidated(); err != nil {
		e.t.Fatalf("failed to validate ledger: %v", err)
	}
	e.closed = append(e.closed, e.open)

	next, err := ledger.NewOpen(e.open)
	if err != nil {
		e.t.Fatalf("failed to open next ledger: %v", err)
	}
	e.open = next
}

// MintNFT creates an asset owned by the given account: a metadata entry
// with the given royalty policy and a token account holding one unit. The
// entries are written directly into the open ledger's state, standing in
// for the token mint flow this environment does not model.
func (e *TestEnv) MintNFT(owner *Account, sellerFeeBps uint16, creators ...state.Creator) address.Address {
	e.t.Helper()

	e.mintCounter++
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], e.mintCounter)
	mint := address.Address(crypto.Sha512Half([]byte("test-mint"), seq[:], owner.Addr[:]))
	collection := address.Address(crypto.Sha512Half([]byte("test-collection"), owner.Addr[:]))

	meta := &state.MetadataData{
		Mint:         mint,
		SellerFeeBps: sellerFeeBps,
		Creators:     creators,
		Collection:   &state.Collection{Key: collection, Verified: true},
	}
	data, err := state.SerializeMetadata(meta)
	if err != nil {
		e.t.Fatalf("failed to serialize metadata: %v", err)
	}
	if err := e.open.State.Insert(pda.Metadata(mint), data); err != nil {
		e.t.Fatalf("failed to insert metadata: %v", err)
	}

	ta := &state.TokenAccountData{
		Mint:   mint,
		Owner:  owner.Addr,
		Amount: 1,
	}
	taData, err := state.SerializeTokenAccount(ta)
	if err != nil {
		e.t.Fatalf("failed to serialize token account: %v", err)
	}
	if err := e.open.State.Insert(pda.TokenAccount(owner.Addr, mint), taData); err != nil {
		e.t.Fatalf("failed to insert token account: %v", err)
	}

	return mint
}

// Creator builds a creator record for the given account.
func Creator(acc *Account, share uint8, verified bool) state.Creator {
	return state.Creator{
		Address:  acc.Addr,
		Share:    share,
		Verified: verified,
	}
}

// InitMarketplace creates a marketplace and returns its derived key.
func (e *TestEnv) InitMarketplace(admin *Account, name string, feeBps uint16) [32]byte {
	e.t.Helper()

	result := e.Submit(market.NewInitializeMarketplace(admin.Address, name, feeBps))
	if !result.Applied {
		e.t.Fatalf("failed to initialize marketplace %q: %s", name, result.Result)
	}
	k, _ := pda.Marketplace(admin.Addr, name)
	return k.Key
}

// Balance returns the native balance of an account.
func (e *TestEnv) Balance(acc *Account) uint64 {
	e.t.Helper()
	return e.BalanceOf(acc.Addr)
}

// BalanceOf returns the native balance of a raw address.
func (e *TestEnv) BalanceOf(addr address.Address) uint64 {
	e.t.Helper()
	balance, err := system.Balance(e.open.State, addr)
	if err != nil {
		e.t.Fatalf("failed to read balance: %v", err)
	}
	return balance
}

// TokenAccount returns the token account for (owner, mint), or nil when it
// does not exist.
func (e *TestEnv) TokenAccount(owner *Account, mint address.Address) *state.TokenAccountData {
	e.t.Helper()

	data, err := e.open.State.Read(pda.TokenAccount(owner.Addr, mint))
	if err != nil {
		e.t.Fatalf("failed to read token account: %v", err)
	}
	if data == nil {
		return nil
	}
	ta, err := state.ParseTokenAccount(data)
	if err != nil {
		e.t.Fatalf("failed to parse token account: %v", err)
	}
	return ta
}

// TokenBalance returns the token balance for (owner, mint), or zero when
// the token account does not exist.
func (e *TestEnv) TokenBalance(owner *Account, mint address.Address) uint64 {
	e.t.Helper()

	ta := e.TokenAccount(owner, mint)
	if ta == nil {
		return 0
	}
	return ta.Amount
}

// Listing returns the listing record for (marketplace, mint), or nil when
// no listing exists.
func (e *TestEnv) Listing(marketplace [32]byte, mint address.Address) *state.ListingData {
	e.t.Helper()

	k, _ := pda.Listing(marketplace, mint)
	data, err := e.open.State.Read(k)
	if err != nil {
		e.t.Fatalf("failed to read listing: %v", err)
	}
	if data == nil {
		return nil
	}
	listing, err := state.ParseListing(data)
	if err != nil {
		e.t.Fatalf("failed to parse listing: %v", err)
	}
	return listing
}

// Marketplace returns the marketplace record stored at the given key, or
// nil when it does not exist.
func (e *TestEnv) Marketplace(key [32]byte) *state.MarketplaceData {
	e.t.Helper()

	data, err := e.open.State.Read(pda.Keylet{Type: entry.TypeMarketplace, Key: key})
	if err != nil {
		e.t.Fatalf("failed to read marketplace: %v", err)
	}
	if data == nil {
		return nil
	}
	mp, err := state.ParseMarketplace(data)
	if err != nil {
		e.t.Fatalf("failed to parse marketplace: %v", err)
	}
	return mp
}

// FeeVault returns the derived fee vault address for a marketplace key.
func (e *TestEnv) FeeVault(marketplace [32]byte) address.Address {
	addr, _ := pda.FeeVault(marketplace)
	return addr
}

// VaultBalance returns the token balance held by a custodial listing vault.
func (e *TestEnv) VaultBalance(listing *state.ListingData) uint64 {
	e.t.Helper()

	vaultK := pda.Keylet{Type: entry.TypeTokenAccount, Key: listing.Vault}
	data, err := e.open.State.Read(vaultK)
	if err != nil {
		e.t.Fatalf("failed to read vault token account: %v", err)
	}
	if data == nil {
		return 0
	}
	ta, err := state.ParseTokenAccount(data)
	if err != nil {
		e.t.Fatalf("failed to parse vault token account: %v", err)
	}
	return ta.Amount
}
