package rpc

// registerAllMethods wires every RPC method to the server's services.
func (s *Server) registerAllMethods() {
	// Server methods
	s.registry.Register("ping", &PingMethod{})
	s.registry.Register("server_info", &ServerInfoMethod{server: s})
	s.registry.Register("ledger_current", &LedgerCurrentMethod{server: s})

	// Standalone mode methods
	s.registry.Register("ledger_accept", &LedgerAcceptMethod{server: s})

	// Transaction methods
	s.registry.Register("submit", &SubmitMethod{server: s})
	s.registry.Register("tx", &TxMethod{server: s})
	s.registry.Register("account_tx", &AccountTxMethod{server: s})

	// Ledger entry methods
	s.registry.Register("account_info", &AccountInfoMethod{server: s})
	s.registry.Register("token_account_info", &TokenAccountInfoMethod{server: s})
	s.registry.Register("marketplace_info", &MarketplaceInfoMethod{server: s})
	s.registry.Register("listing_info", &ListingInfoMethod{server: s})
}
