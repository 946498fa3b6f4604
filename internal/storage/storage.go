// Package storage selects the persistence backend for a ledger file.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bolkhuis/kasboek/internal/ledger"
	"github.com/bolkhuis/kasboek/internal/storage/boltstore"
	"github.com/bolkhuis/kasboek/internal/storage/jsonfile"
	"github.com/bolkhuis/kasboek/internal/storage/sqlitestore"
)

// Backend loads and saves whole ledger snapshots.
type Backend interface {
	Load(ctx context.Context) (ledger.Snapshot, error)
	Save(ctx context.Context, s ledger.Snapshot) error
	Close() error
}

// Open returns the backend for path, chosen by file extension:
// .json, .db/.sqlite or .bolt/.bbolt.
func Open(path string, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("path", path)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return jsonfile.New(path, logger), nil
	case ".db", ".sqlite":
		s, err := sqlitestore.Open(path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		return s, nil
	case ".bolt", ".bbolt":
		s, err := boltstore.Open(path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening bolt ledger: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported ledger file extension %q (want .json, .db, .sqlite, .bolt or .bbolt)", ext)
	}
}
