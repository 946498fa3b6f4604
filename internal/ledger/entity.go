package ledger

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// MaxNameLength is the maximum length of an entity name.
const MaxNameLength = 256

var namePattern = regexp.MustCompile(`^[a-zA-Z ]*$`)

// EntityKind distinguishes plain accounts from household residents.
type EntityKind string

const (
	// KindGeneric is a plain account of any account type.
	KindGeneric EntityKind = "generic"
	// KindResident is a household member: always a liability and carries a
	// previous balance used as the starting point of the next invoice.
	KindResident EntityKind = "resident"
)

// Entity is an account in the ledger. Entities are values: every balance
// change produces a new Entity that the Ledger stores in place of the old one.
// Two entities are equal (==) iff all fields match.
type Entity struct {
	ID      int
	Name    string
	Type    AccountType
	Balance float64
	Kind    EntityKind
	// PreviousBalance is the balance at the last invoice. Zero for generic entities.
	PreviousBalance float64
}

// NewEntity builds a generic entity. The name is stripped of surrounding whitespace.
func NewEntity(id int, name string, accountType AccountType, balance float64) (Entity, error) {
	e := Entity{
		ID:      id,
		Name:    strings.TrimSpace(name),
		Type:    accountType,
		Balance: balance,
		Kind:    KindGeneric,
	}
	if !ValidName(name) {
		return Entity{}, fmt.Errorf("%w: illegal entity name %q", ErrInvalidArgument, name)
	}
	if err := e.Validate(); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// NewResident builds a resident entity. Residents are always liabilities.
func NewResident(id int, name string, previousBalance, balance float64) (Entity, error) {
	e := Entity{
		ID:              id,
		Name:            strings.TrimSpace(name),
		Type:            AccountTypeLiability,
		Balance:         balance,
		Kind:            KindResident,
		PreviousBalance: previousBalance,
	}
	if !ValidName(name) {
		return Entity{}, fmt.Errorf("%w: illegal entity name %q", ErrInvalidArgument, name)
	}
	if err := e.Validate(); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// NewPlaceholder builds the stand-in counterparty used for summarised
// invoice lines. It has the non-existent account type and a zero balance.
func NewPlaceholder(id int, name string) (Entity, error) {
	return NewEntity(id, name, AccountTypeNonExistent, 0)
}

// ValidName reports whether name is acceptable for an entity: not blank, at
// most MaxNameLength characters once stripped, letters and spaces only.
func ValidName(name string) bool {
	if strings.ContainsAny(name, "\r\n") {
		return false
	}
	s := strings.TrimSpace(name)
	return s != "" && len(s) <= MaxNameLength && namePattern.MatchString(s)
}

// Validate checks the entity invariants.
func (e Entity) Validate() error {
	if !ValidName(e.Name) || e.Name != strings.TrimSpace(e.Name) {
		return fmt.Errorf("%w: illegal entity name %q", ErrInvalidArgument, e.Name)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidArgument, e.Type)
	}
	if !finite(e.Balance) {
		return fmt.Errorf("%w: balance must be finite", ErrInvalidArgument)
	}
	switch e.Kind {
	case KindGeneric:
		if e.PreviousBalance != 0 {
			return fmt.Errorf("%w: only residents carry a previous balance", ErrInvalidArgument)
		}
	case KindResident:
		if e.Type != AccountTypeLiability {
			return fmt.Errorf("%w: residents must be liabilities, got %s", ErrTypeMismatch, e.Type)
		}
		if !finite(e.PreviousBalance) {
			return fmt.Errorf("%w: previous balance must be finite", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, e.Kind)
	}
	return nil
}

// IsResident reports whether e is a resident.
func (e Entity) IsResident() bool {
	return e.Kind == KindResident
}

// DebitBalanceChange returns how much the balance moves when amount is debited.
func (e Entity) DebitBalanceChange(amount float64) float64 {
	if e.Type.IsDebitNormal() {
		return amount
	}
	return -amount
}

// CreditBalanceChange returns how much the balance moves when amount is credited.
func (e Entity) CreditBalanceChange(amount float64) float64 {
	if e.Type.IsDebitNormal() {
		return -amount
	}
	return amount
}

// Debit returns a copy of e with amount debited. Residents keep their
// previous balance.
func (e Entity) Debit(amount float64) (Entity, error) {
	if amount < 0 || !finite(amount) {
		return Entity{}, fmt.Errorf("%w: cannot debit %v, credit instead", ErrInvalidArgument, amount)
	}
	return e.withBalance(e.Balance + e.DebitBalanceChange(amount))
}

// Credit returns a copy of e with amount credited. Residents keep their
// previous balance.
func (e Entity) Credit(amount float64) (Entity, error) {
	if amount < 0 || !finite(amount) {
		return Entity{}, fmt.Errorf("%w: cannot credit %v, debit instead", ErrInvalidArgument, amount)
	}
	return e.withBalance(e.Balance + e.CreditBalanceChange(amount))
}

// WithPreviousBalance returns a copy of a resident with a new previous balance.
func (e Entity) WithPreviousBalance(previous float64) (Entity, error) {
	if !e.IsResident() {
		return Entity{}, fmt.Errorf("%w: entity %d is not a resident", ErrTypeMismatch, e.ID)
	}
	if !finite(previous) {
		return Entity{}, fmt.Errorf("%w: previous balance must be finite", ErrInvalidArgument)
	}
	e.PreviousBalance = previous
	return e, nil
}

// WithName returns a copy of e carrying a new, stripped name.
func (e Entity) WithName(name string) (Entity, error) {
	if !ValidName(name) {
		return Entity{}, fmt.Errorf("%w: illegal entity name %q", ErrInvalidArgument, name)
	}
	e.Name = strings.TrimSpace(name)
	return e, nil
}

func (e Entity) withBalance(balance float64) (Entity, error) {
	if !finite(balance) {
		return Entity{}, fmt.Errorf("%w: entity %d", ErrArithmeticOverflow, e.ID)
	}
	e.Balance = balance
	return e, nil
}

func (e Entity) String() string {
	return e.Name
}

// CompareEntities orders entities by name ignoring case, then balance, then
// account type, then id.
func CompareEntities(a, b Entity) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Balance, b.Balance); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Type.ordinal(), b.Type.ordinal()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// sameName is the duplicate-name rule: whitespace-stripped, case-insensitive.
func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
