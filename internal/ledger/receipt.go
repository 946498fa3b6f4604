package ledger

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Receipt groups the transactions of one real-world purchase paid by a
// single entity. Membership of the transaction set can change; identity and
// equality do not depend on it.
type Receipt struct {
	ID      int
	Name    string
	Date    time.Time
	PayerID int

	transactionIDs map[int]struct{}
}

// NewReceipt builds a receipt. The name doubles as the description of the
// summarised invoice line, so it follows the description rules.
func NewReceipt(id int, name string, transactionIDs []int, date time.Time, payerID int) (Receipt, error) {
	r := Receipt{
		ID:             id,
		Name:           strings.TrimSpace(name),
		Date:           Day(date),
		PayerID:        payerID,
		transactionIDs: make(map[int]struct{}, len(transactionIDs)),
	}
	for _, tid := range transactionIDs {
		r.transactionIDs[tid] = struct{}{}
	}
	if err := r.Validate(); err != nil {
		return Receipt{}, err
	}
	return r, nil
}

// Validate checks the receipt invariants.
func (r Receipt) Validate() error {
	if !ValidDescription(r.Name) {
		return fmt.Errorf("%w: illegal receipt name %q", ErrInvalidArgument, r.Name)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: receipt %d has no date", ErrInvalidArgument, r.ID)
	}
	return nil
}

// RegisterTransaction adds id to the set and reports whether it was new.
func (r *Receipt) RegisterTransaction(id int) bool {
	if r.transactionIDs == nil {
		r.transactionIDs = make(map[int]struct{})
	}
	if _, ok := r.transactionIDs[id]; ok {
		return false
	}
	r.transactionIDs[id] = struct{}{}
	return true
}

// UnregisterTransaction removes id from the set and reports whether it was present.
func (r *Receipt) UnregisterTransaction(id int) bool {
	if _, ok := r.transactionIDs[id]; !ok {
		return false
	}
	delete(r.transactionIDs, id)
	return true
}

// ContainsTransaction reports whether id is a member.
func (r Receipt) ContainsTransaction(id int) bool {
	_, ok := r.transactionIDs[id]
	return ok
}

// TransactionIDs returns the member ids in ascending order.
func (r Receipt) TransactionIDs() []int {
	return slices.Sorted(maps.Keys(r.transactionIDs))
}

// Len returns the number of member transactions.
func (r Receipt) Len() int {
	return len(r.transactionIDs)
}

// Clone returns a copy that does not share the member set with r.
func (r Receipt) Clone() Receipt {
	r.transactionIDs = maps.Clone(r.transactionIDs)
	return r
}

// Equal compares id, name, date and payer. Membership is ignored.
func (r Receipt) Equal(o Receipt) bool {
	return r.ID == o.ID && r.Name == o.Name && r.Date.Equal(o.Date) && r.PayerID == o.PayerID
}

func (r Receipt) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Date.Format(DateLayout))
}

// CompareReceipts orders by date, payer, name and id.
func CompareReceipts(a, b Receipt) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PayerID, b.PayerID); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
