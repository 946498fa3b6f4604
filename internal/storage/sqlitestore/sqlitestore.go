// Package sqlitestore keeps a ledger snapshot in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/bolkhuis/kasboek/internal/ledger"
	"github.com/bolkhuis/kasboek/internal/storage/record"
)

// Store is a SQLite backend.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and migrates its schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the whole snapshot.
func (s *Store) Load(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT next_entity_id, next_transaction_id, next_receipt_id FROM counters WHERE id = 1`,
	).Scan(&snap.NextEntityID, &snap.NextTransactionID, &snap.NextReceiptID)
	if err != nil && err != sql.ErrNoRows {
		return ledger.Snapshot{}, fmt.Errorf("read counters: %w", err)
	}

	if snap.Entities, err = s.loadEntities(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Transactions, err = s.loadTransactions(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Receipts, err = s.loadReceipts(ctx); err != nil {
		return ledger.Snapshot{}, err
	}
	s.logger.Debug("ledger loaded",
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))
	return snap, nil
}

func (s *Store) loadEntities(ctx context.Context) ([]ledger.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, account_type, balance, previous_balance FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entity
	for rows.Next() {
		var r record.Entity
		var prev float64
		if err := rows.Scan(&r.Object.ID, &r.Object.Name, &r.Type, &r.Object.AccountType, &r.Object.Balance, &prev); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		if r.Type == record.TypeResident {
			r.Object.PreviousBalance = &prev
		}
		e, err := r.ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, debtor_id, creditor_id, receipt_id, amount, description FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		var r record.Transaction
		var receiptID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Date, &r.DebtorID, &r.CreditorID, &receiptID, &r.Amount, &r.Description); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if receiptID.Valid {
			id := int(receiptID.Int64)
			r.ReceiptID = &id
		}
		t, err := r.ToTransaction()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) loadReceipts(ctx context.Context) ([]ledger.Receipt, error) {
	members := make(map[int][]int)
	mrows, err := s.db.QueryContext(ctx, `SELECT receipt_id, transaction_id FROM receipt_members ORDER BY receipt_id, transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("list receipt members: %w", err)
	}
	for mrows.Next() {
		var rid, tid int
		if err := mrows.Scan(&rid, &tid); err != nil {
			mrows.Close()
			return nil, fmt.Errorf("scan receipt member row: %w", err)
		}
		members[rid] = append(members[rid], tid)
	}
	// The single connection must be free before the next query.
	if err := mrows.Close(); err != nil {
		return nil, fmt.Errorf("list receipt members: %w", err)
	}
	if err := mrows.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, date, payer_id FROM receipts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Receipt
	for rows.Next() {
		var r record.Receipt
		if err := rows.Scan(&r.ID, &r.Name, &r.Date, &r.Payer); err != nil {
			return nil, fmt.Errorf("scan receipt row: %w", err)
		}
		r.TransactionIDSet = members[r.ID]
		rc, err := r.ToReceipt()
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Save replaces the stored snapshot inside a single SQL transaction.
func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"receipt_members", "transactions", "receipts", "entities"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counters (id, next_entity_id, next_transaction_id, next_receipt_id) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET next_entity_id = excluded.next_entity_id,
			next_transaction_id = excluded.next_transaction_id, next_receipt_id = excluded.next_receipt_id`,
		snap.NextEntityID, snap.NextTransactionID, snap.NextReceiptID,
	); err != nil {
		return fmt.Errorf("write counters: %w", err)
	}

	for _, e := range snap.Entities {
		r := record.FromEntity(e)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities (id, name, kind, account_type, balance, previous_balance) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, r.Type, string(e.Type), e.Balance, e.PreviousBalance,
		); err != nil {
			return fmt.Errorf("insert entity %d: %w", e.ID, err)
		}
	}

	for _, rc := range snap.Receipts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO receipts (id, name, date, payer_id) VALUES (?, ?, ?, ?)`,
			rc.ID, rc.Name, rc.Date.Format(ledger.DateLayout), rc.PayerID,
		); err != nil {
			return fmt.Errorf("insert receipt %d: %w", rc.ID, err)
		}
	}

	for _, t := range snap.Transactions {
		var receiptID sql.NullInt64
		if t.Receipt.Valid {
			receiptID = sql.NullInt64{Int64: int64(t.Receipt.ID), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, date, debtor_id, creditor_id, receipt_id, amount, description) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date.Format(ledger.DateLayout), t.DebtorID, t.CreditorID, receiptID, t.Amount, t.Description,
		); err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	for _, rc := range snap.Receipts {
		for _, tid := range rc.TransactionIDs() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO receipt_members (receipt_id, transaction_id) VALUES (?, ?)`, rc.ID, tid,
			); err != nil {
				return fmt.Errorf("insert receipt %d member %d: %w", rc.ID, tid, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("ledger saved",
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))
	return nil
}
