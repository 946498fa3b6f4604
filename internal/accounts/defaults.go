package accounts

import (
	"fmt"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Account is an entry in a starter chart of accounts.
type Account struct {
	Name string
	Type ledger.AccountType
}

// DefaultChart returns the starter chart for a new household.
func DefaultChart() []Account {
	return []Account{
		{Name: "Bank", Type: ledger.AccountTypeAsset},
		{Name: "Cash", Type: ledger.AccountTypeAsset},
		{Name: "Groceries", Type: ledger.AccountTypeExpense},
		{Name: "Household supplies", Type: ledger.AccountTypeExpense},
		{Name: "Utilities", Type: ledger.AccountTypeExpense},
		{Name: "Rent", Type: ledger.AccountTypeExpense},
		{Name: "Contributions", Type: ledger.AccountTypeRevenue},
		{Name: "Opening balances", Type: ledger.AccountTypeEquity},
	}
}

// Seed adds chart to l with zero balances, allocating ids in order.
// Accounts whose name is already taken are skipped.
func Seed(l *ledger.HouseholdLedger, chart []Account) (added int, err error) {
	for _, a := range chart {
		if _, ok := l.EntityIDByName(a.Name); ok {
			continue
		}
		e, err := ledger.NewEntity(l.AllocEntityID(), a.Name, a.Type, 0)
		if err != nil {
			return added, fmt.Errorf("seeding %q: %w", a.Name, err)
		}
		if err := l.AddEntity(e); err != nil {
			return added, fmt.Errorf("seeding %q: %w", a.Name, err)
		}
		added++
	}
	return added, nil
}
