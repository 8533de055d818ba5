// Package history keeps a relational index of applied transactions so
// clients can look them up by hash or by account long after the entries
// they touched were rewritten. It is backed by an embedded SQLite database
// and is strictly write-once: records are inserted when a transaction is
// applied and never updated.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// TxRecord is one applied transaction as stored in the history index.
type TxRecord struct {
	Hash      string    `json:"hash"`
	LedgerSeq uint32    `json:"ledger_seq"`
	Account   string    `json:"account"`
	Result    string    `json:"result"`
	RawTxn    []byte    `json:"raw_txn"`
	Meta      []byte    `json:"meta"`
	AppliedAt time.Time `json:"applied_at"`
}

// Store is a SQLite-backed transaction history index.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	hash        TEXT    PRIMARY KEY,
	ledger_seq  INTEGER NOT NULL,
	account     TEXT    NOT NULL,
	result      TEXT    NOT NULL,
	raw_txn     BLOB,
	meta        BLOB,
	applied_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account, ledger_seq);
CREATE INDEX IF NOT EXISTS idx_transactions_ledger ON transactions (ledger_seq);
`

// Open opens (creating if needed) a history store at the given path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history db at %s", path)
	}

	// modernc's driver is not safe for concurrent writers on one
	// connection pool entry; a single connection serializes access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts an applied transaction. Recording the same hash twice is
// an error.
func (s *Store) Record(ctx context.Context, rec *TxRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (hash, ledger_seq, account, result, raw_txn, meta, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Hash, rec.LedgerSeq, rec.Account, rec.Result, rec.RawTxn, rec.Meta,
		rec.AppliedAt.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "record transaction %s", rec.Hash)
	}
	return nil
}

// GetByHash looks up a transaction by its hash. A missing record returns
// (nil, nil).
func (s *Store) GetByHash(ctx context.Context, hash string) (*TxRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, ledger_seq, account, result, raw_txn, meta, applied_at
		 FROM transactions WHERE hash = ?`, hash)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get transaction %s", hash)
	}
	return rec, nil
}

// AccountTransactions returns up to limit transactions signed by the given
// account, newest first, skipping offset records.
func (s *Store) AccountTransactions(ctx context.Context, account string, limit, offset int) ([]*TxRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, ledger_seq, account, result, raw_txn, meta, applied_at
		 FROM transactions WHERE account = ?
		 ORDER BY ledger_seq DESC, hash
		 LIMIT ? OFFSET ?`, account, limit, offset)
	if err != nil {
		return nil, errors.Wrapf(err, "account transactions for %s", account)
	}
	defer rows.Close()

	var out []*TxRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan transaction row")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LedgerRange returns the lowest and highest ledger sequence present in
// the index. Both are zero when the index is empty.
func (s *Store) LedgerRange(ctx context.Context) (min, max uint32, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(ledger_seq), 0), COALESCE(MAX(ledger_seq), 0) FROM transactions`)
	if err := row.Scan(&min, &max); err != nil {
		return 0, 0, errors.Wrap(err, "ledger range")
	}
	return min, max, nil
}

// Count returns the total number of recorded transactions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`)
	if err := row.Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count transactions")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*TxRecord, error) {
	var rec TxRecord
	var appliedNanos int64
	if err := s.Scan(&rec.Hash, &rec.LedgerSeq, &rec.Account, &rec.Result,
		&rec.RawTxn, &rec.Meta, &appliedNanos); err != nil {
		return nil, err
	}
	rec.AppliedAt = time.Unix(0, appliedNanos)
	return &rec, nil
}
