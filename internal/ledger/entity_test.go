package ledger

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountType_Polarity(t *testing.T) {
	tests := []struct {
		typ         AccountType
		debitNormal bool
	}{
		{AccountTypeExpense, true},
		{AccountTypeAsset, true},
		{AccountTypeDividend, true},
		{AccountTypeNonExistent, true},
		{AccountTypeLiability, false},
		{AccountTypeRevenue, false},
		{AccountTypeEquity, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.debitNormal, tt.typ.IsDebitNormal())
			assert.True(t, tt.typ.Valid())
		})
	}
}

func TestParseAccountType(t *testing.T) {
	at, err := ParseAccountType("revenue")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeRevenue, at)

	_, err = ParseAccountType("income")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewEntity_StripsName(t *testing.T) {
	e, err := NewEntity(3, "  Groceries ", AccountTypeExpense, 0)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", e.Name)
	assert.Equal(t, KindGeneric, e.Kind)
}

func TestNewEntity_InvalidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"blank", "   "},
		{"digits", "Bank 2"},
		{"newline", "Bank\nAccount"},
		{"carriage return", "Bank\r"},
		{"punctuation", "Bank!"},
		{"too long", strings.Repeat("a", MaxNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntity(0, tt.input, AccountTypeAsset, 0)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestNewEntity_MaxLengthName(t *testing.T) {
	_, err := NewEntity(0, strings.Repeat("a", MaxNameLength), AccountTypeAsset, 0)
	assert.NoError(t, err)
}

func TestNewEntity_NonFiniteBalance(t *testing.T) {
	_, err := NewEntity(0, "Bank", AccountTypeAsset, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewEntity(0, "Bank", AccountTypeAsset, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEntity_DebitCredit(t *testing.T) {
	bank, err := NewEntity(0, "Bank", AccountTypeAsset, 100)
	require.NoError(t, err)
	alice, err := NewEntity(1, "Alice", AccountTypeLiability, 100)
	require.NoError(t, err)

	d, err := bank.Debit(25)
	require.NoError(t, err)
	assert.Equal(t, 125.0, d.Balance)
	c, err := bank.Credit(25)
	require.NoError(t, err)
	assert.Equal(t, 75.0, c.Balance)

	d, err = alice.Debit(25)
	require.NoError(t, err)
	assert.Equal(t, 75.0, d.Balance)
	c, err = alice.Credit(25)
	require.NoError(t, err)
	assert.Equal(t, 125.0, c.Balance)

	// The original is untouched.
	assert.Equal(t, 100.0, bank.Balance)
}

func TestEntity_DebitCreditInverse(t *testing.T) {
	for _, at := range AccountTypes {
		for _, amount := range []float64{0, 0.25, 12.5, 1024} {
			e, err := NewEntity(7, "Account", at, 37.75)
			require.NoError(t, err)

			d, err := e.Debit(amount)
			require.NoError(t, err)
			back, err := d.Credit(amount)
			require.NoError(t, err)
			assert.Equal(t, e, back, "%s debit then credit %v", at, amount)

			c, err := e.Credit(amount)
			require.NoError(t, err)
			back, err = c.Debit(amount)
			require.NoError(t, err)
			assert.Equal(t, e, back, "%s credit then debit %v", at, amount)
		}
	}
}

func TestEntity_NegativeAmount(t *testing.T) {
	e, err := NewEntity(0, "Bank", AccountTypeAsset, 0)
	require.NoError(t, err)
	_, err = e.Debit(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.Credit(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.Debit(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEntity_Overflow(t *testing.T) {
	e, err := NewEntity(0, "Bank", AccountTypeAsset, math.MaxFloat64)
	require.NoError(t, err)
	_, err = e.Debit(math.MaxFloat64)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestResident_KeepsPreviousBalance(t *testing.T) {
	r, err := NewResident(2, "Gerrit", 40, 10)
	require.NoError(t, err)
	assert.Equal(t, AccountTypeLiability, r.Type)
	assert.True(t, r.IsResident())

	c, err := r.Credit(5)
	require.NoError(t, err)
	assert.Equal(t, 15.0, c.Balance)
	assert.Equal(t, 40.0, c.PreviousBalance)
	assert.True(t, c.IsResident())

	p, err := c.WithPreviousBalance(15)
	require.NoError(t, err)
	assert.Equal(t, 15.0, p.PreviousBalance)
	assert.Equal(t, 15.0, p.Balance)
}

func TestEntity_WithPreviousBalanceRequiresResident(t *testing.T) {
	e, err := NewEntity(0, "Bank", AccountTypeAsset, 0)
	require.NoError(t, err)
	_, err = e.WithPreviousBalance(1)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEntity_ValidateResidentType(t *testing.T) {
	r, err := NewResident(2, "Gerrit", 0, 0)
	require.NoError(t, err)
	r.Type = AccountTypeAsset
	assert.ErrorIs(t, r.Validate(), ErrTypeMismatch)

	g, err := NewEntity(0, "Bank", AccountTypeAsset, 0)
	require.NoError(t, err)
	g.PreviousBalance = 3
	assert.ErrorIs(t, g.Validate(), ErrInvalidArgument)
}

func TestEntity_Equality(t *testing.T) {
	a, _ := NewEntity(1, "Bank", AccountTypeAsset, 10)
	b, _ := NewEntity(1, "Bank", AccountTypeAsset, 10)
	c, _ := NewEntity(1, "Bank", AccountTypeAsset, 11)
	assert.True(t, a == b)
	assert.False(t, a == c)
}

func TestCompareEntities(t *testing.T) {
	mk := func(id int, name string, at AccountType, bal float64) Entity {
		e, err := NewEntity(id, name, at, bal)
		require.NoError(t, err)
		return e
	}
	// name ignoring case first
	assert.Negative(t, CompareEntities(mk(9, "alpha", AccountTypeAsset, 9), mk(0, "Beta", AccountTypeAsset, 0)))
	// then balance
	assert.Negative(t, CompareEntities(mk(9, "Bank", AccountTypeAsset, 1), mk(0, "bank", AccountTypeAsset, 2)))
	// then account type
	assert.Negative(t, CompareEntities(mk(9, "Bank", AccountTypeExpense, 1), mk(0, "Bank", AccountTypeAsset, 1)))
	// then id
	assert.Negative(t, CompareEntities(mk(1, "Bank", AccountTypeAsset, 1), mk(2, "Bank", AccountTypeAsset, 1)))
	assert.Zero(t, CompareEntities(mk(1, "Bank", AccountTypeAsset, 1), mk(1, "Bank", AccountTypeAsset, 1)))
}

func TestNewPlaceholder(t *testing.T) {
	p, err := NewPlaceholder(-1, "Various")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeNonExistent, p.Type)
	assert.Zero(t, p.Balance)
}
