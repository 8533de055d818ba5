package rpc_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger"
	"github.com/solmint/marketd/internal/core/ledger/service"
	crypto "github.com/solmint/marketd/internal/crypto/common"
	"github.com/solmint/marketd/internal/rpc"
	"github.com/solmint/marketd/internal/storage/history"

	_ "github.com/solmint/marketd/internal/core/tx/market"
	_ "github.com/solmint/marketd/internal/core/tx/system"
)

const masterFunding = 100_000_000_000

func testAddr(name string) string {
	addr := crypto.Sha512Half([]byte("test-account"), []byte(name))
	return address.Encode(addr)
}

// testServer runs an RPC server over a fresh standalone ledger service
// with a funded master account and a history index.
func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	hist, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	master := testAddr("master")
	svc, err := service.New(service.Config{
		Standalone: true,
		Genesis: ledger.GenesisConfig{
			Accounts: map[string]uint64{master: masterFunding},
		},
		History: hist,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	srv := httptest.NewServer(rpc.NewServer(svc, hist, nil, 5*time.Second))
	t.Cleanup(srv.Close)
	return srv, master
}

// call posts a JSON-RPC request and returns the decoded result object.
func call(t *testing.T, srv *httptest.Server, method string, params map[string]interface{}) map[string]interface{} {
	t.Helper()

	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Result)
	return envelope.Result
}

func transferJSON(from, to string, amount uint64) map[string]interface{} {
	return map[string]interface{}{
		"tx_json": map[string]interface{}{
			"instructions": []interface{}{
				map[string]interface{}{
					"InstructionType": "Transfer",
					"Account":         from,
					"Destination":     to,
					"Amount":          amount,
				},
			},
		},
	}
}

func TestPing(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "ping", nil)
	assert.Equal(t, "success", result["status"])
}

func TestServerInfo(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "server_info", nil)
	require.Equal(t, "success", result["status"])

	info, ok := result["info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, info["standalone"])
	assert.Equal(t, float64(2), info["open_ledger_seq"])
	assert.Equal(t, float64(1), info["validated_ledger_seq"])
	assert.NotEmpty(t, info["validated_ledger_hash"])
}

func TestServerInfoOverGet(t *testing.T) {
	srv, _ := testServer(t)

	// A bare GET defaults to server_info.
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Result["status"])
	assert.Contains(t, envelope.Result, "info")
}

func TestUnknownMethod(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "no_such_method", nil)
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "unknownCmd", result["error"])
	assert.Equal(t, float64(-32601), result["error_code"])
}

func TestInvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "error", envelope.Result["status"])
	assert.Equal(t, "jsonInvalid", envelope.Result["error"])
}

func TestMissingMethod(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "error", envelope.Result["status"])
	assert.Equal(t, "missingCommand", envelope.Result["error"])
}

func TestSubmitTransfer(t *testing.T) {
	srv, master := testServer(t)
	bob := testAddr("bob")

	result := call(t, srv, "submit", transferJSON(master, bob, 1_000_000))
	require.Equal(t, "success", result["status"])
	assert.Equal(t, "tesSUCCESS", result["engine_result"])
	assert.Equal(t, float64(0), result["engine_result_code"])
	assert.Equal(t, true, result["applied"])
	assert.NotEmpty(t, result["tx_hash"])
	assert.Contains(t, result, "meta")

	// The open ledger answers for the new account.
	result = call(t, srv, "account_info", map[string]interface{}{
		"account":      bob,
		"ledger_index": "current",
	})
	require.Equal(t, "success", result["status"])
	data, ok := result["account_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1_000_000), data["balance"])
}

func TestSubmitRejectedTransaction(t *testing.T) {
	srv, _ := testServer(t)

	// Unfunded source account.
	result := call(t, srv, "submit", transferJSON(testAddr("ghost"), testAddr("bob"), 100))
	require.Equal(t, "success", result["status"])
	assert.Equal(t, "tecACCOUNT_NOT_FOUND", result["engine_result"])
	assert.Equal(t, false, result["applied"])
}

func TestSubmitUnknownInstructionType(t *testing.T) {
	srv, master := testServer(t)

	result := call(t, srv, "submit", map[string]interface{}{
		"tx_json": map[string]interface{}{
			"instructions": []interface{}{
				map[string]interface{}{
					"InstructionType": "Bogus",
					"Account":         master,
				},
			},
		},
	})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "invalidParams", result["error"])
}

func TestSubmitMissingTxJSON(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "submit", map[string]interface{}{})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "invalidParams", result["error"])
}

func TestLedgerAcceptAndTx(t *testing.T) {
	srv, master := testServer(t)
	bob := testAddr("bob")

	submitted := call(t, srv, "submit", transferJSON(master, bob, 1_000_000))
	require.Equal(t, true, submitted["applied"])
	hash := submitted["tx_hash"].(string)

	result := call(t, srv, "ledger_current", nil)
	assert.Equal(t, float64(2), result["ledger_current_index"])

	result = call(t, srv, "ledger_accept", nil)
	require.Equal(t, "success", result["status"])
	assert.Equal(t, float64(2), result["ledger_closed_index"])
	assert.Equal(t, float64(3), result["ledger_current_index"])

	result = call(t, srv, "tx", map[string]interface{}{"transaction": hash})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, hash, result["hash"])
	assert.Equal(t, float64(2), result["ledger_index"])
	assert.Equal(t, "tesSUCCESS", result["result"])
	assert.Equal(t, master, result["account"])
	assert.Equal(t, true, result["validated"])
}

func TestTxNotFound(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "tx", map[string]interface{}{
		"transaction": fmt.Sprintf("%064x", 42),
	})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "txnNotFound", result["error"])
	assert.Equal(t, float64(24), result["error_code"])
}

func TestAccountInfoNotFound(t *testing.T) {
	srv, _ := testServer(t)

	result := call(t, srv, "account_info", map[string]interface{}{
		"account": testAddr("nobody"),
	})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "actNotFound", result["error"])
	assert.Equal(t, float64(19), result["error_code"])
}

func TestAccountTx(t *testing.T) {
	srv, master := testServer(t)
	bob := testAddr("bob")

	submitted := call(t, srv, "submit", transferJSON(master, bob, 1_000_000))
	require.Equal(t, true, submitted["applied"])

	result := call(t, srv, "account_tx", map[string]interface{}{
		"account": master,
	})
	require.Equal(t, "success", result["status"])
	assert.Equal(t, master, result["account"])

	txs, ok := result["transactions"].([]interface{})
	require.True(t, ok)
	require.Len(t, txs, 1)
	entry := txs[0].(map[string]interface{})
	assert.Equal(t, submitted["tx_hash"], entry["hash"])
	assert.Equal(t, "tesSUCCESS", entry["result"])
}

func TestMarketplaceInfoNotFound(t *testing.T) {
	srv, master := testServer(t)

	result := call(t, srv, "marketplace_info", map[string]interface{}{
		"admin": master,
		"name":  "main",
	})
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, "objectNotFound", result["error"])
	assert.Equal(t, float64(92), result["error_code"])
}
