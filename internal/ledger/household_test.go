package ledger

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustReceipt(t *testing.T, id int, name string, txIDs []int, day, payer int) Receipt {
	t.Helper()
	r, err := NewReceipt(id, name, txIDs, date(2024, 3, day), payer)
	require.NoError(t, err)
	return r
}

// household builds Bank(0), Groceries(1) and the resident Gerrit(2).
func household(t *testing.T) *HouseholdLedger {
	t.Helper()
	h := NewHousehold()
	require.NoError(t, h.AddEntity(mustEntity(t, 0, "Bank", AccountTypeAsset, 0)))
	require.NoError(t, h.AddEntity(mustEntity(t, 1, "Groceries", AccountTypeExpense, 0)))
	require.NoError(t, h.AddEntity(mustResident(t, 2, "Gerrit", 0, 0)))
	return h
}

func TestHousehold_AddTransactionRegistersWithReceipt(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))

	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))
	require.NoError(t, h.AddTransaction(mustTx(t, 1, 1, 2, 20, ReceiptOf(0), 3, "Cheese")))

	r, ok := h.Receipt(0)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, r.TransactionIDs())
	assert.Equal(t, 1, h.NextReceiptID())
}

func TestHousehold_AddTransactionMissingReceipt(t *testing.T) {
	h := household(t)
	err := h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(5), 3, "Bread"))
	assert.ErrorIs(t, err, ErrReferentialIntegrity)
	assert.Empty(t, h.Transactions())
	g, _ := h.Entity(2)
	assert.Zero(t, g.Balance)
}

func TestHousehold_RemoveTransactionUnregisters(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))

	_, ok := h.RemoveTransaction(0)
	require.True(t, ok)
	r, _ := h.Receipt(0)
	assert.Zero(t, r.Len())
}

func TestHousehold_BaseLedgerNotExported(t *testing.T) {
	typ := reflect.TypeOf(HouseholdLedger{})
	for i := range typ.NumField() {
		assert.False(t, typ.Field(i).IsExported(), "field %s", typ.Field(i).Name)
	}
}

func TestHousehold_ReceiptMembershipSurvivesReload(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))
	require.NoError(t, h.AddTransaction(mustTx(t, 1, 1, 2, 20, ReceiptOf(0), 3, "Cheese")))
	_, ok := h.RemoveTransaction(0)
	require.True(t, ok)

	reloaded, err := FromSnapshot(h.Snapshot())
	require.NoError(t, err)
	assert.True(t, h.Equal(reloaded))
	r, _ := reloaded.Receipt(0)
	assert.Equal(t, []int{1}, r.TransactionIDs())
}

func TestHousehold_AddReceiptMissingTransaction(t *testing.T) {
	h := household(t)
	err := h.AddReceipt(mustReceipt(t, 0, "Supermarket", []int{99}, 3, 2))
	assert.ErrorIs(t, err, ErrReferentialIntegrity)
	assert.False(t, h.ContainsReceipt(0))
	assert.Empty(t, h.Receipts())
}

func TestHousehold_AddReceiptChecks(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))
	require.NoError(t, h.AddTransaction(mustTx(t, 1, 1, 2, 10, NoReceipt, 3, "Milk")))

	err := h.AddReceipt(mustReceipt(t, 0, "Again", nil, 3, 2))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = h.AddReceipt(mustReceipt(t, 1, "Nobody paid", nil, 3, 42))
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	err = h.AddReceipt(mustReceipt(t, 1, "Steals bread", []int{0}, 3, 2))
	assert.ErrorIs(t, err, ErrConflict)

	err = h.AddReceipt(mustReceipt(t, 1, "Backfill", []int{1}, 3, 2))
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Len(t, h.Receipts(), 1)
}

func TestHousehold_RemoveReceiptDetachesTransactions(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))
	require.NoError(t, h.AddTransaction(mustTx(t, 1, 1, 2, 20, ReceiptOf(0), 3, "Cheese")))
	gerrit, _ := h.Entity(2)

	r, ok := h.RemoveReceipt(0)
	require.True(t, ok)
	assert.Equal(t, "Supermarket", r.Name)
	assert.False(t, h.ContainsReceipt(0))

	for _, id := range []int{0, 1} {
		tx, ok := h.Transaction(id)
		require.True(t, ok)
		assert.False(t, tx.Receipt.Valid)
	}
	after, _ := h.Entity(2)
	assert.Equal(t, gerrit, after, "balances are untouched")

	_, ok = h.RemoveReceipt(0)
	assert.False(t, ok)
}

func TestHousehold_RemoveReceiptAndTransactionsUnsupported(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	assert.ErrorIs(t, h.RemoveReceiptAndTransactions(0), ErrUnsupported)
	assert.True(t, h.ContainsReceipt(0))
}

func TestHousehold_RemoveMatchingReceipt(t *testing.T) {
	h := household(t)
	r := mustReceipt(t, 0, "Supermarket", nil, 3, 2)
	require.NoError(t, h.AddReceipt(r))

	_, ok := h.RemoveMatchingReceipt(mustReceipt(t, 0, "Bakery", nil, 3, 2))
	assert.False(t, ok)
	_, ok = h.RemoveMatchingReceipt(r)
	assert.True(t, ok)
}

func TestHousehold_ReceiptIsolation(t *testing.T) {
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))

	r, _ := h.Receipt(0)
	r.RegisterTransaction(7)

	stored, _ := h.Receipt(0)
	assert.False(t, stored.ContainsTransaction(7))
}

func TestHousehold_ReceiptFeed(t *testing.T) {
	h := household(t)
	var changes []Change[Receipt]
	h.ReceiptChanges().Subscribe(func(c Change[Receipt]) { changes = append(changes, c) })

	require.NoError(t, h.AddReceipt(mustReceipt(t, 0, "Supermarket", nil, 3, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 1, 2, 10, ReceiptOf(0), 3, "Bread")))
	h.RemoveReceipt(0)

	require.Len(t, changes, 3)
	assert.True(t, changes[0].Added() && !changes[0].Removed())
	assert.True(t, changes[1].Added() && changes[1].Removed())
	assert.Equal(t, 1, changes[1].New.Len())
	assert.Zero(t, changes[1].Old.Len())
	assert.True(t, changes[2].Removed() && !changes[2].Added())
}
