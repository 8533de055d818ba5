package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/core/tx"
)

// RequireTxSuccess asserts that a transaction applied with tesSUCCESS.
func RequireTxSuccess(t *testing.T, result tx.ApplyResult) {
	t.Helper()
	require.True(t, result.Applied,
		"expected transaction success, got %s: %s", result.Result, result.Message)
	require.Equal(t, tx.TesSUCCESS, result.Result)
}

// RequireTxFail asserts that a transaction failed with the given code and
// did not touch the ledger.
func RequireTxFail(t *testing.T, result tx.ApplyResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Applied,
		"expected failure with %s, but transaction applied", expected)
	require.Equal(t, expected, result.Result,
		"expected %s, got %s: %s", expected, result.Result, result.Message)
}

// RequireBalance asserts an account's native balance.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected uint64) {
	t.Helper()
	require.Equal(t, expected, env.Balance(acc),
		"account %s balance mismatch", acc.Name)
}
