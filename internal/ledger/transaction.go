package ledger

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// MaxDescriptionLength is the maximum length of a transaction description.
const MaxDescriptionLength = 100

// DateLayout is the ISO calendar date layout used for transaction and receipt dates.
const DateLayout = "2006-01-02"

// ReceiptRef is an optional reference from a transaction to a receipt.
type ReceiptRef struct {
	ID    int
	Valid bool
}

// NoReceipt is the absent receipt reference.
var NoReceipt = ReceiptRef{}

// ReceiptOf returns a present reference to receipt id.
func ReceiptOf(id int) ReceiptRef {
	return ReceiptRef{ID: id, Valid: true}
}

func (r ReceiptRef) String() string {
	if !r.Valid {
		return "none"
	}
	return fmt.Sprintf("%d", r.ID)
}

// compareReceiptRefs sorts an absent reference before any present one.
func compareReceiptRefs(a, b ReceiptRef) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// Transaction moves Amount from the debtor's to the creditor's perspective:
// the debtor is debited and the creditor credited. Transactions are values.
type Transaction struct {
	ID          int
	Date        time.Time
	DebtorID    int
	CreditorID  int
	Receipt     ReceiptRef
	Amount      float64
	Description string
}

// NewTransaction builds and validates a transaction. The date is truncated to
// a calendar day in UTC.
func NewTransaction(id, debtorID, creditorID int, amount float64, receipt ReceiptRef, date time.Time, description string) (Transaction, error) {
	t := Transaction{
		ID:          id,
		Date:        Day(date),
		DebtorID:    debtorID,
		CreditorID:  creditorID,
		Receipt:     receipt,
		Amount:      amount,
		Description: description,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// ValidDescription reports whether s is acceptable as a description: not
// blank, at most MaxDescriptionLength characters once stripped, single line.
func ValidDescription(s string) bool {
	if strings.ContainsAny(s, "\r\n") {
		return false
	}
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && len(trimmed) <= MaxDescriptionLength
}

// Validate checks the transaction invariants.
func (t Transaction) Validate() error {
	if t.Amount < 0 || !finite(t.Amount) {
		return fmt.Errorf("%w: amount must be a finite non-negative number, got %v", ErrInvalidArgument, t.Amount)
	}
	if !ValidDescription(t.Description) {
		return fmt.Errorf("%w: illegal description %q", ErrInvalidArgument, t.Description)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction %d has no date", ErrInvalidArgument, t.ID)
	}
	return nil
}

// ClearReceipt returns a copy of t without a receipt association.
func (t Transaction) ClearReceipt() Transaction {
	t.Receipt = NoReceipt
	return t
}

// Involves reports whether entityID is the debtor or the creditor of t.
func (t Transaction) Involves(entityID int) bool {
	return t.DebtorID == entityID || t.CreditorID == entityID
}

// DateString formats the date as dd-MM-yyyy.
func (t Transaction) DateString() string {
	return t.Date.Format("02-01-2006")
}

func (t Transaction) String() string {
	return t.Description
}

// CompareTransactions orders by date, receipt (absent first), debtor,
// creditor, id, amount and finally description.
func CompareTransactions(a, b Transaction) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := compareReceiptRefs(a.Receipt, b.Receipt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DebtorID, b.DebtorID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CreditorID, b.CreditorID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Amount, b.Amount); c != 0 {
		return c
	}
	return strings.Compare(a.Description, b.Description)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO yyyy-mm-dd date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", ErrInvalidArgument, s, err)
	}
	return d, nil
}

// Equal reports whether t and o carry the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Date.Equal(o.Date) &&
		t.DebtorID == o.DebtorID &&
		t.CreditorID == o.CreditorID &&
		t.Receipt == o.Receipt &&
		t.Amount == o.Amount &&
		t.Description == o.Description
}
