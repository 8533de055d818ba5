package rpc

import (
	"encoding/hex"
	"encoding/json"

	"github.com/solmint/marketd/internal/core/ledger/service"
	"github.com/solmint/marketd/internal/core/tx"
)

// SubmitMethod handles the submit RPC method. The submitted tx_json holds
// the transaction's instructions; each carries an InstructionType
// discriminator naming its registered type.
type SubmitMethod struct {
	server *Server
}

type submitParams struct {
	TxJSON json.RawMessage `json:"tx_json"`
}

func (m *SubmitMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p submitParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.TxJSON == nil {
		return nil, RpcErrorInvalidParams("Missing tx_json")
	}

	txn, err := decodeTransaction(p.TxJSON)
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}

	result, err := m.server.ledger.Submit(ctx.Context, txn)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}

	resp := map[string]interface{}{
		"engine_result":         result.Result.String(),
		"engine_result_code":    int(result.Result),
		"engine_result_message": result.Message,
		"applied":               result.Applied,
		"tx_hash":               hex.EncodeToString(result.Hash[:]),
		"ledger_current_index":  result.CurrentLedger,
	}
	if result.Metadata != nil {
		resp["meta"] = result.Metadata
	}
	return resp, nil
}

// TxMethod handles the tx RPC method.
type TxMethod struct {
	server *Server
}

type txParams struct {
	Transaction string `json:"transaction"`
}

func (m *TxMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p txParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Transaction == "" {
		return nil, RpcErrorInvalidParams("Missing transaction hash")
	}

	info, err := m.server.ledger.GetTransaction(p.Transaction)
	if err != nil {
		if err == service.ErrTxNotFound {
			return nil, RpcErrorTxnNotFound("Transaction not found: " + p.Transaction)
		}
		return nil, RpcErrorInternal(err.Error())
	}

	return map[string]interface{}{
		"hash":         info.Hash,
		"ledger_index": info.LedgerSeq,
		"result":       info.Result,
		"account":      info.Account,
		"validated":    info.Validated,
		"tx":           info.Tx,
		"meta":         info.Meta,
	}, nil
}

// AccountTxMethod handles the account_tx RPC method, serving from the
// relational history index.
type AccountTxMethod struct {
	server *Server
}

type accountTxParams struct {
	Account string `json:"account"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

func (m *AccountTxMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if m.server.history == nil {
		return nil, RpcErrorInternal("transaction history is not enabled")
	}
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p accountTxParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Account == "" {
		return nil, RpcErrorInvalidParams("Missing account")
	}

	records, err := m.server.history.AccountTransactions(ctx.Context, p.Account, p.Limit, p.Offset)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}

	txs := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		txs = append(txs, map[string]interface{}{
			"hash":         rec.Hash,
			"ledger_index": rec.LedgerSeq,
			"result":       rec.Result,
			"tx":           json.RawMessage(rec.RawTxn),
			"meta":         json.RawMessage(rec.Meta),
		})
	}

	return map[string]interface{}{
		"account":      p.Account,
		"transactions": txs,
	}, nil
}

// decodeTransaction parses a submitted tx_json into a transaction,
// resolving each instruction through the type registry.
func decodeTransaction(raw json.RawMessage) (*tx.Transaction, error) {
	var txJSON struct {
		Instructions []json.RawMessage `json:"instructions"`
	}
	if err := json.Unmarshal(raw, &txJSON); err != nil {
		return nil, err
	}
	if len(txJSON.Instructions) == 0 {
		return nil, &RpcError{Code: RpcINVALID_PARAMS, ErrorString: "invalidParams", Message: "tx_json has no instructions"}
	}

	txn := &tx.Transaction{}
	for _, rawIns := range txJSON.Instructions {
		var disc struct {
			InstructionType tx.Type `json:"InstructionType"`
		}
		if err := json.Unmarshal(rawIns, &disc); err != nil {
			return nil, err
		}

		ins := tx.NewInstruction(disc.InstructionType)
		if ins == nil {
			return nil, &RpcError{Code: RpcINVALID_PARAMS, ErrorString: "invalidParams",
				Message: "unknown instruction type: " + string(disc.InstructionType)}
		}
		if err := json.Unmarshal(rawIns, ins); err != nil {
			return nil, err
		}
		txn.Instructions = append(txn.Instructions, ins)
	}
	return txn, nil
}
