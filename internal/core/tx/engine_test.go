package tx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/core/tx"
	"github.com/solmint/marketd/internal/core/tx/market"
	"github.com/solmint/marketd/internal/core/tx/system"
	markettest "github.com/solmint/marketd/internal/testing"
)

func TestEngineEmptyTransaction(t *testing.T) {
	env := markettest.NewTestEnv(t)
	result := env.Submit()
	markettest.RequireTxFail(t, result, tx.TemMALFORMED)
}

func TestEngineInstructionLimit(t *testing.T) {
	env := markettest.NewTestEnv(t)
	dest := markettest.NewAccount("dest")

	instructions := make([]tx.Instruction, tx.MaxTransactionInstructions+1)
	for i := range instructions {
		instructions[i] = system.NewTransfer(env.Master().Address, dest.Address, 1)
	}
	markettest.RequireTxFail(t, env.Submit(instructions...), tx.TemMALFORMED)
}

func TestEngineValidationStopsBeforeLedger(t *testing.T) {
	env := markettest.NewTestEnv(t)
	dest := markettest.NewAccount("dest")
	before := env.Balance(env.Master())

	// A malformed second instruction fails preflight, so the well-formed
	// first transfer must not run either.
	result := env.Submit(
		system.NewTransfer(env.Master().Address, dest.Address, 1_000),
		system.NewTransfer(env.Master().Address, dest.Address, 0),
	)
	markettest.RequireTxFail(t, result, tx.TemBAD_AMOUNT)
	require.Equal(t, 1, result.FailedIndex)
	markettest.RequireBalance(t, env, env.Master(), before)
	require.Equal(t, uint64(0), env.BalanceOf(dest.Addr))
}

func TestEngineAtomicRollback(t *testing.T) {
	env := markettest.NewTestEnv(t)
	alice := markettest.NewAccount("alice")
	bob := markettest.NewAccount("bob")
	env.Fund(alice)
	aliceBefore := env.Balance(alice)

	// The first transfer would succeed on its own; the second overdraws.
	// Atomicity requires that neither reaches the ledger.
	result := env.Submit(
		system.NewTransfer(alice.Address, bob.Address, 1_000),
		system.NewTransfer(alice.Address, bob.Address, aliceBefore*2),
	)
	markettest.RequireTxFail(t, result, tx.TecINSUFFICIENT_FUNDS)
	require.Equal(t, 1, result.FailedIndex)

	markettest.RequireBalance(t, env, alice, aliceBefore)
	require.Equal(t, uint64(0), env.BalanceOf(bob.Addr))
}

func TestEngineBadSigner(t *testing.T) {
	env := markettest.NewTestEnv(t)
	dest := markettest.NewAccount("dest")

	ins := system.NewTransfer("not-an-address", dest.Address, 1_000)
	markettest.RequireTxFail(t, env.Submit(ins), tx.TemBAD_ACCOUNT)
}

func TestEngineMetadataRecordsChanges(t *testing.T) {
	env := markettest.NewTestEnv(t)
	dest := markettest.NewAccount("dest")

	result := env.Submit(system.NewTransfer(env.Master().Address, dest.Address, 1_000))
	markettest.RequireTxSuccess(t, result)
	require.NotNil(t, result.Metadata)

	actions := make(map[string]int)
	for _, e := range result.Metadata.AffectedEntries {
		actions[e.Action]++
		require.Equal(t, "AccountRoot", e.Entry)
	}
	// The sender's root is modified and the destination's created.
	require.Equal(t, map[string]int{"Created": 1, "Modified": 1}, actions)
}

func TestInstructionRegistry(t *testing.T) {
	ins := tx.NewInstruction(tx.TypeTransfer)
	require.NotNil(t, ins)
	_, ok := ins.(*system.Transfer)
	require.True(t, ok)

	require.NotNil(t, tx.NewInstruction(tx.TypeBuy))
	require.Nil(t, tx.NewInstruction(tx.Type("Bogus")))

	types := tx.RegisteredTypes()
	require.Contains(t, types, tx.TypeInitializeMarketplace)
	require.Contains(t, types, tx.TypeList)
	require.Contains(t, types, tx.TypeDelist)
	require.Contains(t, types, tx.TypeBuy)
}

func TestTransactionHashCoversPayments(t *testing.T) {
	alice := markettest.NewAccount("alice")
	bob := markettest.NewAccount("bob")

	a := tx.NewTransaction(system.NewTransfer(alice.Address, bob.Address, 100))
	b := tx.NewTransaction(system.NewTransfer(alice.Address, bob.Address, 101))
	require.NotEqual(t, a.Hash(), b.Hash())

	c := tx.NewTransaction(system.NewTransfer(alice.Address, bob.Address, 100))
	require.Equal(t, a.Hash(), c.Hash())
}

func TestTransactionHashCoversInstructionFields(t *testing.T) {
	seller := markettest.NewAccount("seller")
	marketplace := markettest.NewAccount("marketplace")
	mintA := markettest.NewAccount("mint-a")
	mintB := markettest.NewAccount("mint-b")

	// List carries its mint and price outside the introspection summary;
	// the hash must still distinguish them.
	a := tx.NewTransaction(market.NewList(seller.Address, marketplace.Address, mintA.Address, 100))
	b := tx.NewTransaction(market.NewList(seller.Address, marketplace.Address, mintB.Address, 200))
	require.NotEqual(t, a.Hash(), b.Hash())

	c := tx.NewTransaction(market.NewList(seller.Address, marketplace.Address, mintA.Address, 200))
	require.NotEqual(t, a.Hash(), c.Hash())
	require.NotEqual(t, b.Hash(), c.Hash())
}
