// Package pda derives the deterministic state addresses used by every
// marketd component. Each entry kind owns a seed space; the same seed tuple
// always maps to the same address, so records can be located without any
// separate index.
package pda

import (
	"encoding/binary"

	"github.com/solmint/marketd/internal/codec/address"
	"github.com/solmint/marketd/internal/core/ledger/entry"
	crypto "github.com/solmint/marketd/internal/crypto/common"
)

// Space identifiers for address derivation. Two entries of different kinds
// can never collide because the space prefix participates in the hash.
const (
	spaceAccount     uint16 = 'a' // Account root
	spaceMarketplace uint16 = 'm' // Marketplace registry record
	spaceFeeVault    uint16 = 'f' // Marketplace fee vault
	spaceListing     uint16 = 'l' // Listing record
	spaceVault       uint16 = 'v' // Custodial listing vault
	spaceToken       uint16 = 't' // Token account
	spaceMetadata    uint16 = 'd' // Asset metadata
)

// Keylet represents an addressable location in ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// indexHash computes a state key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// deriveWithBump scans the bump byte downward from 255 until the digest is
// a valid program address. Addresses with the high bit of the first byte
// set are reserved for signing keys; a program authority must never be one,
// so those candidates are skipped. The scan always terminates: each bump
// yields an independent digest, and in practice the first candidate is
// accepted far more often than not.
func deriveWithBump(space uint16, seeds ...[]byte) ([32]byte, uint8) {
	for bump := 255; bump >= 0; bump-- {
		inputs := make([][]byte, 0, len(seeds)+2)
		spaceBytes := make([]byte, 2)
		binary.BigEndian.PutUint16(spaceBytes, space)
		inputs = append(inputs, spaceBytes)
		inputs = append(inputs, seeds...)
		inputs = append(inputs, []byte{uint8(bump)})

		key := crypto.Sha512Half(inputs...)
		if key[0]&0x80 == 0 {
			return key, uint8(bump)
		}
	}
	// Unreachable for any realistic seed tuple; return the bump-0 digest
	// so callers still fail closed on the authorization check.
	return indexHash(space, seeds...), 0
}

// Account returns the keylet for an account root entry.
func Account(a address.Address) Keylet {
	return Keylet{
		Type: entry.TypeAccountRoot,
		Key:  indexHash(spaceAccount, a[:]),
	}
}

// Marketplace returns the keylet and bump for a marketplace record,
// derived from the admin identity and the marketplace name.
func Marketplace(admin address.Address, name string) (Keylet, uint8) {
	key, bump := deriveWithBump(spaceMarketplace, []byte(name), admin[:])
	return Keylet{Type: entry.TypeMarketplace, Key: key}, bump
}

// FeeVault returns the derived address and bump of a marketplace's fee
// vault. The vault's account root lives at Account(address) like any other
// account; the address itself has no signing key, so only the program can
// ever act for it.
func FeeVault(marketplace [32]byte) (address.Address, uint8) {
	key, bump := deriveWithBump(spaceFeeVault, marketplace[:])
	return address.Address(key), bump
}

// Listing returns the keylet and bump for a listing record. A listing is
// keyed by the (marketplace, mint) pair, so one asset can carry at most one
// active listing per marketplace.
func Listing(marketplace [32]byte, mint address.Address) (Keylet, uint8) {
	key, bump := deriveWithBump(spaceListing, marketplace[:], mint[:])
	return Keylet{Type: entry.TypeListing, Key: key}, bump
}

// ListingVault returns the keylet and bump for a custodial listing's vault
// token account. The vault is owned by the listing authority, never by a
// user key.
func ListingVault(listing [32]byte) (Keylet, uint8) {
	key, bump := deriveWithBump(spaceVault, listing[:])
	return Keylet{Type: entry.TypeTokenAccount, Key: key}, bump
}

// TokenAccount returns the keylet for the canonical token account holding
// mint balances for an owner.
func TokenAccount(owner, mint address.Address) Keylet {
	return Keylet{
		Type: entry.TypeTokenAccount,
		Key:  indexHash(spaceToken, owner[:], mint[:]),
	}
}

// Metadata returns the keylet for an asset's metadata entry.
func Metadata(mint address.Address) Keylet {
	return Keylet{
		Type: entry.TypeMetadata,
		Key:  indexHash(spaceMetadata, mint[:]),
	}
}
