// Package book ties a household directory together: its configuration, its
// ledger file, the invoice log and optional git history.
package book

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bolkhuis/kasboek/internal/config"
	"github.com/bolkhuis/kasboek/internal/gitops"
	"github.com/bolkhuis/kasboek/internal/ledger"
	"github.com/bolkhuis/kasboek/internal/storage"
)

// Book is an opened household directory.
type Book struct {
	Dir    string
	Config *config.Config
	Ledger *ledger.HouseholdLedger

	backend storage.Backend
	logger  *slog.Logger
	dirty   bool
	cancel  []func()
	// pending holds extra paths, relative to Dir, to commit with the next save.
	pending []string
}

// Open reads kasboek.yaml in dir and loads the ledger it points to.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Book, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	return OpenWithConfig(ctx, dir, cfg, logger)
}

// OpenWithConfig loads the ledger of dir using an already loaded configuration.
func OpenWithConfig(ctx context.Context, dir string, cfg *config.Config, logger *slog.Logger) (*Book, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path := config.Resolve(dir, cfg.Ledger.Path)
	backend, err := storage.Open(path, logger)
	if err != nil {
		return nil, err
	}
	snap, err := backend.Load(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	h, err := ledger.FromSnapshot(snap)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("loading ledger %s: %w", path, err)
	}
	logger.Debug("ledger loaded", "path", path,
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))

	b := &Book{Dir: dir, Config: cfg, Ledger: h, backend: backend, logger: logger}
	b.track()
	return b, nil
}

func (b *Book) track() {
	b.cancel = append(b.cancel,
		b.Ledger.EntityChanges().Subscribe(func(ledger.Change[ledger.Entity]) { b.dirty = true }),
		b.Ledger.TransactionChanges().Subscribe(func(ledger.Change[ledger.Transaction]) { b.dirty = true }),
		b.Ledger.ReceiptChanges().Subscribe(func(ledger.Change[ledger.Receipt]) { b.dirty = true }),
	)
}

// Dirty reports whether the ledger changed since it was loaded or last saved.
func (b *Book) Dirty() bool { return b.dirty }

// LedgerPath is the resolved ledger file.
func (b *Book) LedgerPath() string { return config.Resolve(b.Dir, b.Config.Ledger.Path) }

// Stage adds paths to the next auto-commit. Relative paths are taken
// relative to the household directory.
func (b *Book) Stage(paths ...string) {
	for _, p := range paths {
		if rel, err := filepath.Rel(b.Dir, config.Resolve(b.Dir, p)); err == nil {
			b.pending = append(b.pending, rel)
		}
	}
}

// Save writes the ledger when it is dirty and, with git auto-commit enabled
// in a git repository, commits it with message.
func (b *Book) Save(ctx context.Context, message string) error {
	if !b.dirty {
		b.logger.Debug("ledger unchanged, not saving")
		return nil
	}
	if err := b.backend.Save(ctx, b.Ledger.Snapshot()); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	b.dirty = false
	b.logger.Info("ledger saved", "path", b.LedgerPath())
	return b.commit(message)
}

func (b *Book) commit(message string) error {
	if !b.Config.Git.AutoCommit || !gitops.IsRepo(b.Dir) {
		b.pending = nil
		return nil
	}
	paths := append([]string{b.Config.Ledger.Path}, b.pending...)
	b.pending = nil

	author := gitops.Author{Name: b.Config.Git.AuthorName, Email: b.Config.Git.AuthorEmail}
	hash, err := gitops.Commit(b.Dir, paths, message, author)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	b.logger.Info("ledger committed", "commit", hash)
	return nil
}

// Close stops change tracking and releases the backend. Unsaved changes are lost.
func (b *Book) Close() error {
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = nil
	if b.dirty {
		b.logger.Warn("closing ledger with unsaved changes")
	}
	return b.backend.Close()
}

// Various returns the placeholder counterparty for summarised invoice lines.
// Its id is the next free entity id, so it never collides with a stored entity.
func (b *Book) Various() (ledger.Entity, error) {
	return ledger.NewPlaceholder(b.Ledger.NextEntityID(), b.Config.Invoice.VariousLabel)
}

// Exists reports whether dir already holds a kasboek configuration.
func Exists(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, config.FileName))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
