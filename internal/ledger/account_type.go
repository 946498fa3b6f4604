package ledger

import "fmt"

// AccountType classifies an entity in the household chart of accounts.
type AccountType string

const (
	AccountTypeExpense     AccountType = "expense"
	AccountTypeAsset       AccountType = "asset"
	AccountTypeDividend    AccountType = "dividend"
	AccountTypeLiability   AccountType = "liability"
	AccountTypeRevenue     AccountType = "revenue"
	AccountTypeEquity      AccountType = "equity"
	AccountTypeNonExistent AccountType = "nonexistent"
)

// AccountTypes lists every account type in declaration order. The order is
// used as the tie-breaker when entities are sorted.
var AccountTypes = []AccountType{
	AccountTypeExpense,
	AccountTypeAsset,
	AccountTypeDividend,
	AccountTypeLiability,
	AccountTypeRevenue,
	AccountTypeEquity,
	AccountTypeNonExistent,
}

// IsDebitNormal reports whether balances of this type increase on debit.
// Expense, asset, dividend and the placeholder type are debit-normal;
// liability, revenue and equity are credit-normal.
func (t AccountType) IsDebitNormal() bool {
	switch t {
	case AccountTypeLiability, AccountTypeRevenue, AccountTypeEquity:
		return false
	default:
		return true
	}
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t.ordinal() >= 0
}

// Label returns a human-readable label.
func (t AccountType) Label() string {
	switch t {
	case AccountTypeExpense:
		return "Expense"
	case AccountTypeAsset:
		return "Asset"
	case AccountTypeDividend:
		return "Dividend"
	case AccountTypeLiability:
		return "Liability"
	case AccountTypeRevenue:
		return "Revenue"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeNonExistent:
		return "Non existent"
	default:
		return string(t)
	}
}

// ParseAccountType converts a string such as "asset" into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown account type %q", ErrInvalidArgument, s)
	}
	return t, nil
}

func (t AccountType) ordinal() int {
	for i, at := range AccountTypes {
		if at == t {
			return i
		}
	}
	return -1
}
