// Package jsonfile stores a ledger snapshot as a single JSON document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bolkhuis/kasboek/internal/ledger"
	"github.com/bolkhuis/kasboek/internal/storage/record"
)

// Store is a JSON file backend.
type Store struct {
	path   string
	logger *slog.Logger
}

// New returns a Store for path. The file is not touched until Load or Save.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, logger: logger}
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (ledger.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("ledger file does not exist yet")
		return ledger.Snapshot{}, nil
	}
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("reading ledger file: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	s.logger.Debug("ledger loaded",
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))
	return snap, nil
}

// Save writes the snapshot to a temporary file and renames it over the
// ledger file.
func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing ledger file: %w", err)
	}
	s.logger.Debug("ledger saved", "bytes", len(data))
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Encode renders a snapshot as indented JSON.
func Encode(snap ledger.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(record.FromSnapshot(snap), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON document into a snapshot. Unknown fields are rejected.
func Decode(data []byte) (ledger.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc record.Document
	if err := dec.Decode(&doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decoding ledger: %w", err)
	}
	snap, err := doc.ToSnapshot()
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decoding ledger: %w", err)
	}
	return snap, nil
}
