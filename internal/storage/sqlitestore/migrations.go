package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		s.logger.Info("sqlite schema created", "version", 1)
	}

	return tx.Commit()
}

// migrateV1 creates the snapshot tables. Cross references between them are
// checked by ledger.FromSnapshot, not by the schema.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS counters (
			id                  INTEGER PRIMARY KEY CHECK (id = 1),
			next_entity_id      INTEGER NOT NULL,
			next_transaction_id INTEGER NOT NULL,
			next_receipt_id     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			id               INTEGER PRIMARY KEY,
			name             TEXT NOT NULL,
			kind             TEXT NOT NULL CHECK (kind IN ('generic','resident')),
			account_type     TEXT NOT NULL,
			balance          REAL NOT NULL,
			previous_balance REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			id       INTEGER PRIMARY KEY,
			name     TEXT NOT NULL,
			date     TEXT NOT NULL,
			payer_id INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id          INTEGER PRIMARY KEY,
			date        TEXT NOT NULL,
			debtor_id   INTEGER NOT NULL,
			creditor_id INTEGER NOT NULL,
			receipt_id  INTEGER,
			amount      REAL NOT NULL CHECK (amount >= 0),
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE TABLE IF NOT EXISTS receipt_members (
			receipt_id     INTEGER NOT NULL,
			transaction_id INTEGER NOT NULL,
			PRIMARY KEY (receipt_id, transaction_id)
		)`,
		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
