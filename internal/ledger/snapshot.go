package ledger

import (
	"cmp"
	"fmt"
	"slices"
)

// Snapshot is the plain, persistable projection of a HouseholdLedger.
// Collections are ordered by id.
type Snapshot struct {
	NextEntityID      int
	NextTransactionID int
	NextReceiptID     int
	Entities          []Entity
	Transactions      []Transaction
	Receipts          []Receipt
}

// Snapshot projects the ledger into a Snapshot.
func (h *HouseholdLedger) Snapshot() Snapshot {
	s := Snapshot{
		NextEntityID:      h.nextEntityID,
		NextTransactionID: h.nextTransactionID,
		NextReceiptID:     h.nextReceiptID,
		Entities:          make([]Entity, 0, len(h.entities)),
		Transactions:      make([]Transaction, 0, len(h.transactions)),
		Receipts:          make([]Receipt, 0, len(h.receipts)),
	}
	for _, e := range h.entities {
		s.Entities = append(s.Entities, e)
	}
	for _, t := range h.transactions {
		s.Transactions = append(s.Transactions, t)
	}
	for _, r := range h.receipts {
		s.Receipts = append(s.Receipts, r.Clone())
	}
	slices.SortFunc(s.Entities, func(a, b Entity) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(s.Transactions, func(a, b Transaction) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(s.Receipts, func(a, b Receipt) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// FromSnapshot rebuilds a HouseholdLedger from s. Every invariant is checked
// again; stored balances are taken as they are and transactions are not
// re-applied. Each counter ends up at least one past the highest id of its
// collection.
func FromSnapshot(s Snapshot) (*HouseholdLedger, error) {
	h := NewHousehold()

	for _, e := range s.Entities {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entity %d: %w", e.ID, err)
		}
		if _, ok := h.entities[e.ID]; ok {
			return nil, fmt.Errorf("%w: entity %d", ErrDuplicateKey, e.ID)
		}
		if other, ok := h.entityNamed(e.Name, e.ID); ok {
			return nil, fmt.Errorf("%w: entities %d and %d are both named %q", ErrDuplicateName, other.ID, e.ID, e.Name)
		}
		h.entities[e.ID] = e
		h.nextEntityID = max(h.nextEntityID, e.ID+1)
	}

	for _, r := range s.Receipts {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("receipt %d: %w", r.ID, err)
		}
		if _, ok := h.receipts[r.ID]; ok {
			return nil, fmt.Errorf("%w: receipt %d", ErrDuplicateKey, r.ID)
		}
		if !h.ContainsEntity(r.PayerID) {
			return nil, fmt.Errorf("%w: receipt %d payer %d does not exist", ErrReferentialIntegrity, r.ID, r.PayerID)
		}
		h.receipts[r.ID] = r.Clone()
		h.nextReceiptID = max(h.nextReceiptID, r.ID+1)
	}

	for _, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		if _, ok := h.transactions[t.ID]; ok {
			return nil, fmt.Errorf("%w: transaction %d", ErrDuplicateKey, t.ID)
		}
		if err := h.checkEndpoints(t); err != nil {
			return nil, err
		}
		if t.Receipt.Valid {
			r, ok := h.receipts[t.Receipt.ID]
			if !ok {
				return nil, fmt.Errorf("%w: transaction %d refers to missing receipt %d", ErrReferentialIntegrity, t.ID, t.Receipt.ID)
			}
			if !r.ContainsTransaction(t.ID) {
				return nil, fmt.Errorf("%w: transaction %d refers to receipt %d, which does not list it", ErrConflict, t.ID, r.ID)
			}
		}
		h.transactions[t.ID] = t
		h.nextTransactionID = max(h.nextTransactionID, t.ID+1)
	}

	owner := make(map[int]int)
	for _, r := range s.Receipts {
		for _, tid := range r.TransactionIDs() {
			t, ok := h.transactions[tid]
			if !ok {
				return nil, fmt.Errorf("%w: receipt %d lists missing transaction %d", ErrReferentialIntegrity, r.ID, tid)
			}
			if t.Receipt.Valid && t.Receipt.ID != r.ID {
				return nil, fmt.Errorf("%w: transaction %d belongs to receipt %d, not %d", ErrConflict, tid, t.Receipt.ID, r.ID)
			}
			if prev, ok := owner[tid]; ok {
				return nil, fmt.Errorf("%w: transaction %d is listed by receipts %d and %d", ErrConflict, tid, prev, r.ID)
			}
			owner[tid] = r.ID
		}
	}

	h.nextEntityID = max(h.nextEntityID, s.NextEntityID)
	h.nextTransactionID = max(h.nextTransactionID, s.NextTransactionID)
	h.nextReceiptID = max(h.nextReceiptID, s.NextReceiptID)
	return h, nil
}
