package service_test

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/pda"
	"github.com/solmint/marketd/internal/core/ledger/service"
	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/market"
	"github.com/solmint/marketd/internal/core/tx/state"
	"github.com/solmint/marketd/internal/core/tx/system"
	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/storage/history"
	"github.com/solmint/marketd/internal/storage/nodestore"
)

const masterFunding = 100_000_000_000

func testAddr(name string) (address.Address, string) {
	addr := address.Address(crypto.Sha512Half([]byte("test-account"), []byte(name)))
	return addr, address.Encode(addr)
}

func newService(t *testing.T) (*service.Service, string) {
	t.Helper()

	_, master := testAddr("master")
	svc, err := service.New(service.Config{
		Standalone: true,
		Genesis: ledger.GenesisConfig{
			Accounts: map[string]uint64{master: masterFunding},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	return svc, master
}

func submitTransfer(t *testing.T, svc *service.Service, from, to string, amount uint64) *service.SubmitResult {
	t.Helper()

	result, err := svc.Submit(context.Background(), tx.NewTransaction(
		system.NewTransfer(from, to, amount)))
	require.NoError(t, err)
	return result
}

func TestStartGenesis(t *testing.T) {
	svc, master := newService(t)

	// Genesis is validated, the open ledger sits one sequence above it.
	assert.Equal(t, uint32(2), svc.GetCurrentLedgerIndex())
	validated := svc.GetValidatedLedger()
	require.NotNil(t, validated)
	assert.Equal(t, uint32(1), validated.Sequence())

	info, err := svc.GetAccountInfo(master, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(masterFunding), info.Balance)
	assert.Equal(t, uint32(1), info.LedgerSeq)
}

func TestSubmitTransfer(t *testing.T) {
	svc, master := newService(t)
	_, bob := testAddr("bob")

	result := submitTransfer(t, svc, master, bob, 1_000_000)
	assert.True(t, result.Applied)
	assert.Equal(t, tx.TesSUCCESS, result.Result)
	assert.Equal(t, uint32(2), result.CurrentLedger)
	assert.Equal(t, uint32(1), result.ValidatedLedger)
	require.NotNil(t, result.Metadata)

	// The open ledger sees the new account, the validated one does not.
	info, err := svc.GetAccountInfo(bob, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), info.Balance)

	_, err = svc.GetAccountInfo(bob, false)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestSubmitRejected(t *testing.T) {
	svc, _ := newService(t)
	_, ghost := testAddr("ghost")
	_, bob := testAddr("bob")

	result := submitTransfer(t, svc, ghost, bob, 100)
	assert.False(t, result.Applied)
	assert.Equal(t, tx.TecACCOUNT_NOT_FOUND, result.Result)

	// Rejected transactions never enter the index.
	_, err := svc.GetTransaction(hex.EncodeToString(result.Hash[:]))
	assert.ErrorIs(t, err, service.ErrTxNotFound)
}

func TestAcceptLedger(t *testing.T) {
	svc, master := newService(t)
	_, bob := testAddr("bob")

	result := submitTransfer(t, svc, master, bob, 5_000_000)
	require.True(t, result.Applied)

	txInfo, err := svc.GetTransaction(hex.EncodeToString(result.Hash[:]))
	require.NoError(t, err)
	assert.False(t, txInfo.Validated)

	closedSeq, err := svc.AcceptLedger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), closedSeq)
	assert.Equal(t, uint32(3), svc.GetCurrentLedgerIndex())

	txInfo, err = svc.GetTransaction(hex.EncodeToString(result.Hash[:]))
	require.NoError(t, err)
	assert.True(t, txInfo.Validated)
	assert.Equal(t, uint32(2), txInfo.LedgerSeq)
	assert.Equal(t, master, txInfo.Account)

	// The new validated ledger answers queries for the transferred funds.
	info, err := svc.GetAccountInfo(bob, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), info.Balance)
}

func TestAcceptLedgerNotStandalone(t *testing.T) {
	_, master := testAddr("master")
	svc, err := service.New(service.Config{
		Standalone: false,
		Genesis: ledger.GenesisConfig{
			Accounts: map[string]uint64{master: masterFunding},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	_, err = svc.AcceptLedger(context.Background())
	assert.ErrorIs(t, err, service.ErrNotStandalone)
}

func TestGetLedgerBySequence(t *testing.T) {
	svc, _ := newService(t)

	genesis, err := svc.GetLedgerBySequence(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), genesis.Sequence())

	_, err = svc.GetLedgerBySequence(99)
	assert.ErrorIs(t, err, service.ErrLedgerNotFound)
}

func TestGetServerInfo(t *testing.T) {
	svc, _ := newService(t)

	info := svc.GetServerInfo()
	assert.True(t, info.Standalone)
	assert.Equal(t, uint32(2), info.OpenLedgerSeq)
	assert.Equal(t, uint32(1), info.ValidatedLedgerSeq)
	assert.NotEmpty(t, info.ValidatedLedgerHash)
	assert.Equal(t, "1", info.CompleteLedgers)
	assert.Equal(t, 1, info.StateEntries)
	assert.Contains(t, info.InstructionTypes, "Transfer")
	assert.Contains(t, info.InstructionTypes, "InitializeMarketplace")

	_, err := svc.AcceptLedger(context.Background())
	require.NoError(t, err)

	info = svc.GetServerInfo()
	assert.Equal(t, "1-2", info.CompleteLedgers)
}

func TestMarketplaceQueries(t *testing.T) {
	svc, master := newService(t)
	adminAddr, admin := testAddr("admin")
	ctx := context.Background()

	result := submitTransfer(t, svc, master, admin, 10_000_000)
	require.True(t, result.Applied)

	result, err := svc.Submit(ctx, tx.NewTransaction(
		market.NewInitializeMarketplace(admin, "main", 500)))
	require.NoError(t, err)
	require.True(t, result.Applied)

	mp, err := svc.GetMarketplaceInfo(admin, "main", true)
	require.NoError(t, err)
	assert.Equal(t, admin, mp.Admin)
	assert.Equal(t, "main", mp.Name)
	assert.Equal(t, uint16(500), mp.FeeBps)
	assert.NotEmpty(t, mp.FeeVault)

	mk, _ := pda.Marketplace(adminAddr, "main")
	keyBytes, err := hex.DecodeString(mp.Key)
	require.NoError(t, err)
	assert.Equal(t, mk.Key[:], keyBytes)

	_, err = svc.GetMarketplaceInfo(admin, "other", true)
	assert.ErrorIs(t, err, service.ErrMarketplaceNotFound)
}

func TestListingQuery(t *testing.T) {
	svc, master := newService(t)
	adminAddr, admin := testAddr("admin")
	sellerAddr, seller := testAddr("seller")
	ctx := context.Background()

	for _, to := range []string{admin, seller} {
		require.True(t, submitTransfer(t, svc, master, to, 10_000_000).Applied)
	}
	result, err := svc.Submit(ctx, tx.NewTransaction(
		market.NewInitializeMarketplace(admin, "main", 500)))
	require.NoError(t, err)
	require.True(t, result.Applied)

	// Seed the asset directly; the mint flow is out of scope here.
	mintAddr := address.Address(crypto.Sha512Half([]byte("test-mint"), sellerAddr[:]))
	mint := address.Encode(mintAddr)
	open := svc.GetOpenLedger()

	collection := address.Address(crypto.Sha512Half([]byte("test-collection"), sellerAddr[:]))
	metaData, err := state.SerializeMetadata(&state.MetadataData{
		Mint:         mintAddr,
		SellerFeeBps: 100,
		Collection:   &state.Collection{Key: collection, Verified: true},
	})
	require.NoError(t, err)
	require.NoError(t, open.State.Insert(pda.Metadata(mintAddr), metaData))

	taData, err := state.SerializeTokenAccount(&state.TokenAccountData{
		Mint:   mintAddr,
		Owner:  sellerAddr,
		Amount: 1,
	})
	require.NoError(t, err)
	require.NoError(t, open.State.Insert(pda.TokenAccount(sellerAddr, mintAddr), taData))

	mk, _ := pda.Marketplace(adminAddr, "main")
	result, err = svc.Submit(ctx, tx.NewTransaction(
		market.NewList(seller, address.Encode(mk.Key), mint, 1_000_000)))
	require.NoError(t, err)
	require.True(t, result.Applied)

	listing, err := svc.GetListingInfo(admin, "main", mint, true)
	require.NoError(t, err)
	assert.Equal(t, seller, listing.Seller)
	assert.Equal(t, uint64(1_000_000), listing.Price)
	assert.Equal(t, "custodial", listing.Mode)
	assert.NotEmpty(t, listing.Vault)

	ta, err := svc.GetTokenAccountInfo(seller, mint, true)
	require.NoError(t, err)
	assert.Zero(t, ta.Amount)

	_, err = svc.GetListingInfo(admin, "main", seller, true)
	assert.ErrorIs(t, err, service.ErrListingNotFound)
}

func TestStorageIntegration(t *testing.T) {
	_, master := testAddr("master")
	_, bob := testAddr("bob")
	ctx := context.Background()

	backend := nodestore.NewMemoryBackend()
	require.NoError(t, backend.Open(true))
	store := nodestore.NewDatabase(backend, 100, time.Minute)
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	svc, err := service.New(service.Config{
		Standalone: true,
		Genesis: ledger.GenesisConfig{
			Accounts: map[string]uint64{master: masterFunding},
		},
		NodeStore: store,
		History:   hist,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	result := submitTransfer(t, svc, master, bob, 2_000_000)
	require.True(t, result.Applied)

	_, err = svc.AcceptLedger(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	// Genesis and the accepted ledger were both persisted.
	stats := store.Stats()
	assert.NotZero(t, stats.Writes)

	rec, err := hist.GetByHash(ctx, hex.EncodeToString(result.Hash[:]))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, master, rec.Account)
	assert.Equal(t, uint32(2), rec.LedgerSeq)
	assert.Equal(t, "tesSUCCESS", rec.Result)
	assert.NotEmpty(t, rec.RawTxn)
	assert.NotEmpty(t, rec.Meta)
}
