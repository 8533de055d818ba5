package rpc

import (
	"encoding/json"

	"github.com/solmint/marketd/internal/core/ledger/service"
)

// ledgerSelector picks which ledger a query runs against: "current" for
// the open ledger, anything else for the last validated one.
type ledgerSelector struct {
	LedgerIndex string `json:"ledger_index,omitempty"`
}

func (l ledgerSelector) current() bool {
	return l.LedgerIndex == "current"
}

// AccountInfoMethod handles the account_info RPC method.
type AccountInfoMethod struct {
	server *Server
}

type accountInfoParams struct {
	ledgerSelector
	Account string `json:"account"`
}

func (m *AccountInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p accountInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Account == "" {
		return nil, RpcErrorInvalidParams("Missing account")
	}

	info, err := m.server.ledger.GetAccountInfo(p.Account, p.current())
	if err != nil {
		if _, ok := err.(service.ErrNotFound); ok {
			return nil, RpcErrorActNotFound("Account not found: " + p.Account)
		}
		return nil, RpcErrorInvalidParams(err.Error())
	}

	return map[string]interface{}{
		"account_data": info,
		"ledger_index": info.LedgerSeq,
	}, nil
}

// TokenAccountInfoMethod handles the token_account_info RPC method.
type TokenAccountInfoMethod struct {
	server *Server
}

type tokenAccountInfoParams struct {
	ledgerSelector
	Owner string `json:"owner"`
	Mint  string `json:"mint"`
}

func (m *TokenAccountInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p tokenAccountInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Owner == "" || p.Mint == "" {
		return nil, RpcErrorInvalidParams("Missing owner or mint")
	}

	info, err := m.server.ledger.GetTokenAccountInfo(p.Owner, p.Mint, p.current())
	if err != nil {
		if _, ok := err.(service.ErrNotFound); ok {
			return nil, RpcErrorObjectNotFound("Token account not found")
		}
		return nil, RpcErrorInvalidParams(err.Error())
	}

	return map[string]interface{}{
		"token_account": info,
		"ledger_index":  info.LedgerSeq,
	}, nil
}

// MarketplaceInfoMethod handles the marketplace_info RPC method.
type MarketplaceInfoMethod struct {
	server *Server
}

type marketplaceInfoParams struct {
	ledgerSelector
	Admin string `json:"admin"`
	Name  string `json:"name"`
}

func (m *MarketplaceInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p marketplaceInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Admin == "" || p.Name == "" {
		return nil, RpcErrorInvalidParams("Missing admin or name")
	}

	info, err := m.server.ledger.GetMarketplaceInfo(p.Admin, p.Name, p.current())
	if err != nil {
		if _, ok := err.(service.ErrNotFound); ok {
			return nil, RpcErrorObjectNotFound("Marketplace not found: " + p.Name)
		}
		return nil, RpcErrorInvalidParams(err.Error())
	}

	return map[string]interface{}{
		"marketplace":  info,
		"ledger_index": info.LedgerSeq,
	}, nil
}

// ListingInfoMethod handles the listing_info RPC method.
type ListingInfoMethod struct {
	server *Server
}

type listingInfoParams struct {
	ledgerSelector
	Admin string `json:"admin"`
	Name  string `json:"name"`
	Mint  string `json:"mint"`
}

func (m *ListingInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if params == nil {
		return nil, RpcErrorInvalidParams("Missing parameters")
	}

	var p listingInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if p.Admin == "" || p.Name == "" || p.Mint == "" {
		return nil, RpcErrorInvalidParams("Missing admin, name, or mint")
	}

	info, err := m.server.ledger.GetListingInfo(p.Admin, p.Name, p.Mint, p.current())
	if err != nil {
		if _, ok := err.(service.ErrNotFound); ok {
			return nil, RpcErrorObjectNotFound("Listing not found")
		}
		return nil, RpcErrorInvalidParams(err.Error())
	}

	return map[string]interface{}{
		"listing":      info,
		"ledger_index": info.LedgerSeq,
	}, nil
}
