// Package record holds the serialized shapes of ledger items shared by the
// file backends.
package record

import (
	"fmt"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Entity type tags.
const (
	TypeGeneric  = "generic"
	TypeResident = "resident"
)

// Entity is the tagged wrapper around a generic or resident entity.
type Entity struct {
	Type   string       `json:"type"`
	Object EntityObject `json:"object"`
}

// EntityObject carries the entity fields. PreviousBalance is only written
// for residents.
type EntityObject struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	AccountType     string   `json:"account_type,omitempty"`
	Balance         float64  `json:"balance"`
	PreviousBalance *float64 `json:"previous_balance,omitempty"`
}

// Transaction is a serialized transaction. Dates are yyyy-mm-dd.
type Transaction struct {
	ID          int     `json:"id"`
	Date        string  `json:"date"`
	DebtorID    int     `json:"debtor_id"`
	CreditorID  int     `json:"creditor_id"`
	ReceiptID   *int    `json:"receipt_id,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Receipt is a serialized receipt.
type Receipt struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	TransactionIDSet []int  `json:"transaction_id_set"`
	Date             string `json:"date"`
	Payer            int    `json:"payer"`
}

// Counters are the id counters of a snapshot.
type Counters struct {
	NextEntityID      int `json:"next_entity_id"`
	NextTransactionID int `json:"next_transaction_id"`
	NextReceiptID     int `json:"next_receipt_id"`
}

// FromEntity converts a ledger entity.
func FromEntity(e ledger.Entity) Entity {
	if e.IsResident() {
		prev := e.PreviousBalance
		return Entity{Type: TypeResident, Object: EntityObject{
			ID: e.ID, Name: e.Name, Balance: e.Balance, PreviousBalance: &prev,
		}}
	}
	return Entity{Type: TypeGeneric, Object: EntityObject{
		ID: e.ID, Name: e.Name, AccountType: string(e.Type), Balance: e.Balance,
	}}
}

// ToEntity converts back to a ledger entity.
func (r Entity) ToEntity() (ledger.Entity, error) {
	o := r.Object
	switch r.Type {
	case TypeResident:
		var prev float64
		if o.PreviousBalance != nil {
			prev = *o.PreviousBalance
		}
		return ledger.NewResident(o.ID, o.Name, prev, o.Balance)
	case TypeGeneric:
		at, err := ledger.ParseAccountType(o.AccountType)
		if err != nil {
			return ledger.Entity{}, fmt.Errorf("entity %d: %w", o.ID, err)
		}
		return ledger.NewEntity(o.ID, o.Name, at, o.Balance)
	default:
		return ledger.Entity{}, fmt.Errorf("%w: entity %d has unknown type %q", ledger.ErrInvalidArgument, o.ID, r.Type)
	}
}

// FromTransaction converts a ledger transaction.
func FromTransaction(t ledger.Transaction) Transaction {
	out := Transaction{
		ID:          t.ID,
		Date:        t.Date.Format(ledger.DateLayout),
		DebtorID:    t.DebtorID,
		CreditorID:  t.CreditorID,
		Amount:      t.Amount,
		Description: t.Description,
	}
	if t.Receipt.Valid {
		id := t.Receipt.ID
		out.ReceiptID = &id
	}
	return out
}

// ToTransaction converts back to a ledger transaction.
func (r Transaction) ToTransaction() (ledger.Transaction, error) {
	d, err := ledger.ParseDate(r.Date)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction %d: %w", r.ID, err)
	}
	ref := ledger.NoReceipt
	if r.ReceiptID != nil {
		ref = ledger.ReceiptOf(*r.ReceiptID)
	}
	return ledger.NewTransaction(r.ID, r.DebtorID, r.CreditorID, r.Amount, ref, d, r.Description)
}

// FromReceipt converts a ledger receipt.
func FromReceipt(rc ledger.Receipt) Receipt {
	ids := rc.TransactionIDs()
	if ids == nil {
		ids = []int{}
	}
	return Receipt{
		ID:               rc.ID,
		Name:             rc.Name,
		TransactionIDSet: ids,
		Date:             rc.Date.Format(ledger.DateLayout),
		Payer:            rc.PayerID,
	}
}

// ToReceipt converts back to a ledger receipt.
func (r Receipt) ToReceipt() (ledger.Receipt, error) {
	d, err := ledger.ParseDate(r.Date)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("receipt %d: %w", r.ID, err)
	}
	return ledger.NewReceipt(r.ID, r.Name, r.TransactionIDSet, d, r.Payer)
}

// Document is a whole snapshot in serialized form.
type Document struct {
	Counters
	Entities     []Entity      `json:"accounting_entities"`
	Transactions []Transaction `json:"transactions"`
	Receipts     []Receipt     `json:"receipts"`
}

// FromSnapshot converts a ledger snapshot.
func FromSnapshot(s ledger.Snapshot) Document {
	doc := Document{
		Counters: Counters{
			NextEntityID:      s.NextEntityID,
			NextTransactionID: s.NextTransactionID,
			NextReceiptID:     s.NextReceiptID,
		},
		Entities:     make([]Entity, 0, len(s.Entities)),
		Transactions: make([]Transaction, 0, len(s.Transactions)),
		Receipts:     make([]Receipt, 0, len(s.Receipts)),
	}
	for _, e := range s.Entities {
		doc.Entities = append(doc.Entities, FromEntity(e))
	}
	for _, t := range s.Transactions {
		doc.Transactions = append(doc.Transactions, FromTransaction(t))
	}
	for _, r := range s.Receipts {
		doc.Receipts = append(doc.Receipts, FromReceipt(r))
	}
	return doc
}

// ToSnapshot converts back to a ledger snapshot. Only the individual items
// are validated here; cross references are checked by ledger.FromSnapshot.
func (d Document) ToSnapshot() (ledger.Snapshot, error) {
	s := ledger.Snapshot{
		NextEntityID:      d.NextEntityID,
		NextTransactionID: d.NextTransactionID,
		NextReceiptID:     d.NextReceiptID,
	}
	for _, r := range d.Entities {
		e, err := r.ToEntity()
		if err != nil {
			return ledger.Snapshot{}, err
		}
		s.Entities = append(s.Entities, e)
	}
	for _, r := range d.Transactions {
		t, err := r.ToTransaction()
		if err != nil {
			return ledger.Snapshot{}, err
		}
		s.Transactions = append(s.Transactions, t)
	}
	for _, r := range d.Receipts {
		rc, err := r.ToReceipt()
		if err != nil {
			return ledger.Snapshot{}, err
		}
		s.Receipts = append(s.Receipts, rc)
	}
	return s, nil
}
