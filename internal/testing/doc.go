// Package testing provides a test ledger environment for transaction
// testing. It offers a simplified interface for creating accounts, funding
// them, minting assets, submitting transactions and verifying results.
package testing
