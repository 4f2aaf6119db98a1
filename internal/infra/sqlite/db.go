// Package sqlite is the embedded-database backend for the contribution and
// execution ledgers, selected by [ledger].backend = "sqlite".
//
// The JSON-document backend (internal/infra/ledgerfile) serializes mutations
// through advisory file locks; here the same exclusive-mutation contract is
// carried by SQLite transactions plus a unique index on the dedup key.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection for ledger persistence.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path and applies
// migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// One writer at a time; the ledgers are small append-only logs.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.db.Close() }

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Contribution ledger (append-only)
		`CREATE TABLE IF NOT EXISTS contributions (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			email             TEXT,
			customer_id       TEXT,
			amount_usd_cents  INTEGER NOT NULL,
			contributed_at    TEXT NOT NULL,
			month             TEXT NOT NULL,
			external_event_id TEXT,
			source            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_month ON contributions(month)`,
		// The dedup backstop: at most one record per external billing event.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_contributions_event
			ON contributions(external_event_id)
			WHERE external_event_id IS NOT NULL`,

		// Execution ledger (append-only). Structured sub-records travel as
		// JSON; the indexed columns serve the idempotency gate.
		`CREATE TABLE IF NOT EXISTS executions (
			id          TEXT PRIMARY KEY,
			month       TEXT NOT NULL,
			credit_type TEXT NOT NULL,
			status      TEXT NOT NULL,
			dry_run     INTEGER NOT NULL DEFAULT 0,
			record_json TEXT NOT NULL,
			executed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_gate ON executions(month, credit_type, status)`,
	}
}

func (d *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
