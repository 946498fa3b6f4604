// Package boltstore keeps a ledger snapshot in a bbolt database, one bucket
// per collection with JSON values keyed by id.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"

	"github.com/bolkhuis/kasboek/internal/ledger"
	"github.com/bolkhuis/kasboek/internal/storage/record"
)

// Bucket names.
const (
	BucketMeta         = "meta"
	BucketEntities     = "entities"
	BucketTransactions = "transactions"
	BucketReceipts     = "receipts"
)

var countersKey = []byte("counters")

var collections = []string{BucketEntities, BucketTransactions, BucketReceipts}

// Store is a bbolt backend.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and initializes its buckets.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range append([]string{BucketMeta}, collections...) {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the whole snapshot.
func (s *Store) Load(ctx context.Context) (ledger.Snapshot, error) {
	var doc record.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket([]byte(BucketMeta)).Get(countersKey); data != nil {
			if err := json.Unmarshal(data, &doc.Counters); err != nil {
				return fmt.Errorf("decoding counters: %w", err)
			}
		}
		if err := each(tx, BucketEntities, func(v []byte) error {
			var r record.Entity
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			doc.Entities = append(doc.Entities, r)
			return nil
		}); err != nil {
			return err
		}
		if err := each(tx, BucketTransactions, func(v []byte) error {
			var r record.Transaction
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			doc.Transactions = append(doc.Transactions, r)
			return nil
		}); err != nil {
			return err
		}
		return each(tx, BucketReceipts, func(v []byte) error {
			var r record.Receipt
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			doc.Receipts = append(doc.Receipts, r)
			return nil
		})
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap, err := doc.ToSnapshot()
	if err != nil {
		return ledger.Snapshot{}, err
	}
	s.logger.Debug("ledger loaded",
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))
	return snap, nil
}

func each(tx *bolt.Tx, bucket string, fn func(v []byte) error) error {
	return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
		if err := fn(v); err != nil {
			return fmt.Errorf("decoding %s key %d: %w", bucket, btoi(k), err)
		}
		return nil
	})
}

// Save replaces the stored snapshot in a single bbolt transaction.
func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	doc := record.FromSnapshot(snap)
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range collections {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to clear bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		counters, err := json.Marshal(doc.Counters)
		if err != nil {
			return fmt.Errorf("failed to marshal counters: %w", err)
		}
		if err := tx.Bucket([]byte(BucketMeta)).Put(countersKey, counters); err != nil {
			return err
		}

		for _, r := range doc.Entities {
			if err := put(tx, BucketEntities, r.Object.ID, r); err != nil {
				return err
			}
		}
		for _, r := range doc.Transactions {
			if err := put(tx, BucketTransactions, r.ID, r); err != nil {
				return err
			}
		}
		for _, r := range doc.Receipts {
			if err := put(tx, BucketReceipts, r.ID, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("ledger saved",
		"entities", len(snap.Entities), "transactions", len(snap.Transactions), "receipts", len(snap.Receipts))
	return nil
}

func put(tx *bolt.Tx, bucket string, id int, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return tx.Bucket([]byte(bucket)).Put(itob(id), data)
}

// itob encodes an id as a big-endian key. The sign bit is flipped so that
// negative ids sort before positive ones.
func itob(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(v))^(1<<63))
	return b
}

func btoi(b []byte) int {
	if len(b) != 8 {
		return 0
	}
	return int(int64(binary.BigEndian.Uint64(b) ^ (1 << 63)))
}
