package rpc

import (
	"encoding/json"
)

// PingMethod handles the ping RPC method.
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{}, nil
}

// ServerInfoMethod handles the server_info RPC method.
type ServerInfoMethod struct {
	server *Server
}

func (m *ServerInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	info := m.server.ledger.GetServerInfo()

	return map[string]interface{}{
		"info": map[string]interface{}{
			"standalone":            info.Standalone,
			"open_ledger_seq":       info.OpenLedgerSeq,
			"validated_ledger_seq":  info.ValidatedLedgerSeq,
			"validated_ledger_hash": info.ValidatedLedgerHash,
			"state_entries":         info.StateEntries,
			"complete_ledgers":      info.CompleteLedgers,
			"instruction_types":     info.InstructionTypes,
		},
	}, nil
}

// LedgerCurrentMethod handles the ledger_current RPC method.
type LedgerCurrentMethod struct {
	server *Server
}

func (m *LedgerCurrentMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{
		"ledger_current_index": m.server.ledger.GetCurrentLedgerIndex(),
	}, nil
}

// LedgerAcceptMethod handles the ledger_accept RPC method. Standalone mode
// only: it seals the open ledger and opens the next one.
type LedgerAcceptMethod struct {
	server *Server
}

func (m *LedgerAcceptMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if !m.server.ledger.IsStandalone() {
		return nil, RpcErrorNotStandalone("ledger_accept requires standalone mode")
	}

	seq, err := m.server.ledger.AcceptLedger(ctx.Context)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}

	return map[string]interface{}{
		"ledger_current_index": seq + 1,
		"ledger_closed_index":  seq,
	}, nil
}
