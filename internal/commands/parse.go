package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// parseAmount reads a non-negative amount with at most two decimals.
// A decimal comma is accepted.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ledger.ErrInvalidArgument, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: amount %s is negative", ledger.ErrInvalidArgument, d)
	}
	if scaled := d.Mul(hundred); !scaled.Equal(scaled.Floor()) {
		return 0, fmt.Errorf("%w: amount %s has more than 2 decimal places", ledger.ErrInvalidArgument, d)
	}
	return d.InexactFloat64(), nil
}

// parseBalance reads a signed balance.
func parseBalance(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return 0, fmt.Errorf("%w: balance %q", ledger.ErrInvalidArgument, s)
	}
	return d.InexactFloat64(), nil
}

// entityNamed looks up an entity by name, ignoring case.
func entityNamed(h *ledger.HouseholdLedger, name string) (ledger.Entity, error) {
	id, ok := h.EntityIDByName(name)
	if !ok {
		return ledger.Entity{}, fmt.Errorf("%w: no entity named %q", ledger.ErrNotFound, name)
	}
	e, _ := h.Entity(id)
	return e, nil
}

// residentNamed looks up a resident by name.
func residentNamed(h *ledger.HouseholdLedger, name string) (ledger.Entity, error) {
	e, err := entityNamed(h, name)
	if err != nil {
		return ledger.Entity{}, err
	}
	if !e.IsResident() {
		return ledger.Entity{}, fmt.Errorf("%w: %s is not a resident", ledger.ErrTypeMismatch, e.Name)
	}
	return e, nil
}
