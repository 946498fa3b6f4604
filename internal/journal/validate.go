package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// ValidationError describes a problem with one imported row.
type ValidationError struct {
	Line        int // line in the CSV file, header is line 1
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("line %d [%s]: %s", e.Line, e.Field, e.Description)
}

// Directory answers the lookups an import needs from the target ledger.
type Directory interface {
	EntityIDByName(name string) (int, bool)
	ContainsTransaction(id int) bool
	ContainsReceipt(id int) bool
}

var hundred = decimal.NewFromInt(100)

// Validate checks rows against dir before anything is imported. It reports
// every problem found rather than stopping at the first.
func Validate(rows []Row, dir Directory) []ValidationError {
	var errs []ValidationError
	fail := func(i int, field, format string, args ...any) {
		errs = append(errs, ValidationError{Line: i + 2, Field: field, Description: fmt.Sprintf(format, args...)})
	}

	seen := make(map[int]int)
	for i, row := range rows {
		if row.HasID {
			if first, dup := seen[row.ID]; dup {
				fail(i, "id", "id %d already used on line %d", row.ID, first+2)
			} else {
				seen[row.ID] = i
			}
			if dir.ContainsTransaction(row.ID) {
				fail(i, "id", "transaction %d already exists", row.ID)
			}
		}

		if _, err := ledger.ParseDate(row.Date); err != nil {
			fail(i, "date", "%q is not a yyyy-mm-dd date", row.Date)
		}
		if _, ok := dir.EntityIDByName(row.Debtor); !ok {
			fail(i, "debtor", "unknown entity %q", row.Debtor)
		}
		if _, ok := dir.EntityIDByName(row.Creditor); !ok {
			fail(i, "creditor", "unknown entity %q", row.Creditor)
		}

		if row.Amount.IsNegative() {
			fail(i, "amount", "amount %s is negative", row.Amount)
		} else if scaled := row.Amount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			fail(i, "amount", "amount %s has more than 2 decimal places", row.Amount)
		}

		if !ledger.ValidDescription(row.Description) {
			fail(i, "description", "description must be 1 to %d characters", ledger.MaxDescriptionLength)
		}
		if !row.Receipt.Valid {
			continue
		}
		if !dir.ContainsReceipt(row.Receipt.ID) {
			fail(i, "receipt_id", "unknown receipt %d", row.Receipt.ID)
		}
	}
	return errs
}

// Transactions converts validated rows to transactions. Rows without an id
// get one from alloc, skipping ids claimed explicitly by other rows.
func Transactions(rows []Row, dir Directory, alloc func() int) ([]ledger.Transaction, error) {
	claimed := make(map[int]bool)
	for _, row := range rows {
		if row.HasID {
			claimed[row.ID] = true
		}
	}

	txs := make([]ledger.Transaction, 0, len(rows))
	for i, row := range rows {
		id := row.ID
		if !row.HasID {
			for id = alloc(); claimed[id]; id = alloc() {
			}
		}
		date, err := ledger.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		debtor, ok := dir.EntityIDByName(row.Debtor)
		if !ok {
			return nil, fmt.Errorf("line %d: debtor %q: %w", i+2, row.Debtor, ledger.ErrReferentialIntegrity)
		}
		creditor, ok := dir.EntityIDByName(row.Creditor)
		if !ok {
			return nil, fmt.Errorf("line %d: creditor %q: %w", i+2, row.Creditor, ledger.ErrReferentialIntegrity)
		}
		t, err := ledger.NewTransaction(id, debtor, creditor, row.Amount.InexactFloat64(), row.Receipt, date, row.Description)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}
