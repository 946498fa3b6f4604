package ledger

import (
	"fmt"
	"maps"
	"slices"
)

// baseLedger names the embedded Ledger of a HouseholdLedger. The field is
// unexported so transactions can only be added or removed through the
// receipt-aware methods.
type baseLedger = Ledger

// HouseholdLedger is a Ledger that also keeps receipts and the two-way
// association between receipts and their transactions.
type HouseholdLedger struct {
	*baseLedger

	receipts      map[int]Receipt
	nextReceiptID int
	receiptFeed   Feed[Receipt]
}

// NewHousehold returns an empty HouseholdLedger.
func NewHousehold() *HouseholdLedger {
	return &HouseholdLedger{
		baseLedger: New(),
		receipts:   make(map[int]Receipt),
	}
}

// ReceiptChanges is the feed of receipt additions, membership changes and removals.
func (h *HouseholdLedger) ReceiptChanges() *Feed[Receipt] { return &h.receiptFeed }

// AddReceipt stores r. Every listed transaction must exist and must already
// refer to r; filling in the reference on an unlinked transaction is not
// supported.
func (h *HouseholdLedger) AddReceipt(r Receipt) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, ok := h.receipts[r.ID]; ok {
		return fmt.Errorf("%w: receipt %d", ErrDuplicateKey, r.ID)
	}
	if !h.ContainsEntity(r.PayerID) {
		return fmt.Errorf("%w: receipt %d payer %d does not exist", ErrReferentialIntegrity, r.ID, r.PayerID)
	}
	var unlinked []int
	for _, tid := range r.TransactionIDs() {
		t, ok := h.Transaction(tid)
		if !ok {
			return fmt.Errorf("%w: receipt %d lists missing transaction %d", ErrReferentialIntegrity, r.ID, tid)
		}
		switch {
		case !t.Receipt.Valid:
			unlinked = append(unlinked, tid)
		case t.Receipt.ID != r.ID:
			return fmt.Errorf("%w: transaction %d belongs to receipt %d, not %d", ErrConflict, tid, t.Receipt.ID, r.ID)
		}
	}
	if len(unlinked) > 0 {
		return fmt.Errorf("%w: receipt %d lists transactions %v that do not refer to it", ErrUnsupported, r.ID, unlinked)
	}
	r = r.Clone()
	h.receipts[r.ID] = r
	h.nextReceiptID = max(h.nextReceiptID, r.ID+1)
	h.receiptFeed.added(r.ID, r)
	return nil
}

// AddTransaction stores and applies t. A transaction that refers to a
// receipt requires that receipt to exist and is registered with it.
func (h *HouseholdLedger) AddTransaction(t Transaction) error {
	if t.Receipt.Valid {
		if _, ok := h.receipts[t.Receipt.ID]; !ok {
			return fmt.Errorf("%w: transaction %d refers to missing receipt %d", ErrReferentialIntegrity, t.ID, t.Receipt.ID)
		}
	}
	if err := h.baseLedger.AddTransaction(t); err != nil {
		return err
	}
	if t.Receipt.Valid {
		h.updateReceipt(t.Receipt.ID, func(r *Receipt) bool { return r.RegisterTransaction(t.ID) })
	}
	return nil
}

// RemoveTransaction reverses and deletes a transaction and unregisters it
// from its receipt, if that receipt still exists.
func (h *HouseholdLedger) RemoveTransaction(id int) (Transaction, bool) {
	t, ok := h.baseLedger.RemoveTransaction(id)
	if !ok {
		return Transaction{}, false
	}
	if t.Receipt.Valid {
		h.updateReceipt(t.Receipt.ID, func(r *Receipt) bool { return r.UnregisterTransaction(id) })
	}
	return t, true
}

// RemoveMatchingTransaction removes the stored transaction equal to t.
func (h *HouseholdLedger) RemoveMatchingTransaction(t Transaction) (Transaction, bool) {
	stored, ok := h.Transaction(t.ID)
	if !ok || !stored.Equal(t) {
		return Transaction{}, false
	}
	return h.RemoveTransaction(t.ID)
}

func (h *HouseholdLedger) updateReceipt(id int, change func(*Receipt) bool) {
	old, ok := h.receipts[id]
	if !ok {
		return
	}
	r := old.Clone()
	if !change(&r) {
		return
	}
	h.receipts[id] = r
	h.receiptFeed.replaced(id, old, r)
}

// RemoveReceipt deletes a receipt. Its transactions stay in the ledger with
// the receipt reference cleared.
func (h *HouseholdLedger) RemoveReceipt(id int) (Receipt, bool) {
	r, ok := h.receipts[id]
	if !ok {
		return Receipt{}, false
	}
	for _, tid := range r.TransactionIDs() {
		if t, ok := h.Transaction(tid); ok && t.Receipt.Valid {
			h.replaceTransaction(t.ClearReceipt())
		}
	}
	delete(h.receipts, id)
	h.receiptFeed.removed(id, r)
	return r, true
}

// RemoveMatchingReceipt removes the stored receipt equal to r.
func (h *HouseholdLedger) RemoveMatchingReceipt(r Receipt) (Receipt, bool) {
	stored, ok := h.receipts[r.ID]
	if !ok || !stored.Equal(r) {
		return Receipt{}, false
	}
	return h.RemoveReceipt(r.ID)
}

// RemoveReceiptAndTransactions would delete a receipt together with its
// transactions. It is not implemented and always fails with ErrUnsupported.
func (h *HouseholdLedger) RemoveReceiptAndTransactions(id int) error {
	return fmt.Errorf("%w: removing receipt %d with its transactions", ErrUnsupported, id)
}

// Receipt returns the receipt with the given id.
func (h *HouseholdLedger) Receipt(id int) (Receipt, bool) {
	r, ok := h.receipts[id]
	if !ok {
		return Receipt{}, false
	}
	return r.Clone(), true
}

// ContainsReceipt reports whether id names a stored receipt.
func (h *HouseholdLedger) ContainsReceipt(id int) bool {
	_, ok := h.receipts[id]
	return ok
}

// Receipts returns all receipts in receipt order.
func (h *HouseholdLedger) Receipts() []Receipt {
	out := make([]Receipt, 0, len(h.receipts))
	for _, r := range h.receipts {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, CompareReceipts)
	return out
}

// NextReceiptID returns the id AllocReceiptID would hand out next.
func (h *HouseholdLedger) NextReceiptID() int { return h.nextReceiptID }

// AllocReceiptID reserves and returns a fresh receipt id.
func (h *HouseholdLedger) AllocReceiptID() int {
	id := h.nextReceiptID
	h.nextReceiptID++
	return id
}

// receiptIndex maps every registered transaction id to its receipt id.
func (h *HouseholdLedger) receiptIndex() map[int]int {
	idx := make(map[int]int)
	for id, r := range h.receipts {
		for tid := range r.transactionIDs {
			idx[tid] = id
		}
	}
	return idx
}

// Equal reports whether h and o hold equal entities, transactions and
// receipts, including receipt membership.
func (h *HouseholdLedger) Equal(o *HouseholdLedger) bool {
	if !h.baseLedger.Equal(o.baseLedger) {
		return false
	}
	return maps.EqualFunc(h.receipts, o.receipts, func(a, b Receipt) bool {
		return a.Equal(b) && maps.Equal(a.transactionIDs, b.transactionIDs)
	})
}
