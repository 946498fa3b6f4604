package book

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bolkhuis/kasboek/internal/accounts"
	"github.com/bolkhuis/kasboek/internal/config"
)

// Create writes cfg to dir and a new ledger seeded with chart, and returns
// the opened book.
func Create(ctx context.Context, dir string, cfg *config.Config, chart []accounts.Account, logger *slog.Logger) (*Book, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return nil, err
	}
	b, err := OpenWithConfig(ctx, dir, cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(b.Ledger.Entities()) > 0 {
		b.Close()
		return nil, fmt.Errorf("ledger %s already holds entities", b.LedgerPath())
	}
	if _, err := accounts.Seed(b.Ledger, chart); err != nil {
		b.Close()
		return nil, err
	}
	// An empty chart still produces a ledger file.
	b.dirty = true
	if err := b.Save(ctx, "init: create ledger"); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}
