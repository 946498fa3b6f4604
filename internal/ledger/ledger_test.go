package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEntity(t *testing.T, id int, name string, at AccountType, balance float64) Entity {
	t.Helper()
	e, err := NewEntity(id, name, at, balance)
	require.NoError(t, err)
	return e
}

func mustResident(t *testing.T, id int, name string, previous, balance float64) Entity {
	t.Helper()
	e, err := NewResident(id, name, previous, balance)
	require.NoError(t, err)
	return e
}

func mustTx(t *testing.T, id, debtor, creditor int, amount float64, receipt ReceiptRef, day int, desc string) Transaction {
	t.Helper()
	tx, err := NewTransaction(id, debtor, creditor, amount, receipt, date(2024, 3, day), desc)
	require.NoError(t, err)
	return tx
}

func bankAndAlice(t *testing.T) *Ledger {
	t.Helper()
	l := New()
	require.NoError(t, l.AddEntity(mustEntity(t, 0, "Bank", AccountTypeAsset, 0)))
	require.NoError(t, l.AddEntity(mustEntity(t, 1, "Alice", AccountTypeLiability, 0)))
	return l
}

func TestLedger_AddTransactionPolarity(t *testing.T) {
	l := bankAndAlice(t)

	require.NoError(t, l.AddTransaction(mustTx(t, 0, 1, 0, 50, NoReceipt, 1, "Rent")))

	alice, _ := l.Entity(1)
	bank, _ := l.Entity(0)
	assert.Equal(t, -50.0, alice.Balance, "liability debtor decreases")
	assert.Equal(t, -50.0, bank.Balance, "asset creditor decreases")
	assert.Equal(t, 1, l.NextTransactionID())
}

func TestLedger_AddThenRemoveRestoresBalances(t *testing.T) {
	l := bankAndAlice(t)
	require.NoError(t, l.AddEntity(mustEntity(t, 2, "Groceries", AccountTypeExpense, 12.75)))
	before := l.Entities()

	tx := mustTx(t, 4, 2, 0, 33.25, NoReceipt, 2, "Supermarket")
	require.NoError(t, l.AddTransaction(tx))
	assert.NotEqual(t, before, l.Entities())

	removed, ok := l.RemoveTransaction(4)
	require.True(t, ok)
	assert.True(t, tx.Equal(removed))
	assert.Equal(t, before, l.Entities())
	assert.False(t, l.ContainsTransaction(4))
}

func TestLedger_SelfTransferIsNeutral(t *testing.T) {
	l := bankAndAlice(t)
	require.NoError(t, l.AddTransaction(mustTx(t, 0, 0, 0, 20, NoReceipt, 1, "Shuffle")))
	bank, _ := l.Entity(0)
	assert.Zero(t, bank.Balance)
}

func TestLedger_AddTransactionReferentialIntegrity(t *testing.T) {
	l := bankAndAlice(t)
	before := l.Entities()

	err := l.AddTransaction(mustTx(t, 0, 9, 0, 10, NoReceipt, 1, "Ghost"))
	assert.ErrorIs(t, err, ErrReferentialIntegrity)
	err = l.AddTransaction(mustTx(t, 0, 0, 9, 10, NoReceipt, 1, "Ghost"))
	assert.ErrorIs(t, err, ErrReferentialIntegrity)

	assert.Equal(t, before, l.Entities())
	assert.Empty(t, l.Transactions())
}

func TestLedger_AddTransactionDuplicateKey(t *testing.T) {
	l := bankAndAlice(t)
	require.NoError(t, l.AddTransaction(mustTx(t, 0, 1, 0, 10, NoReceipt, 1, "First")))
	before := l.Entities()

	err := l.AddTransaction(mustTx(t, 0, 0, 1, 10, NoReceipt, 1, "Second"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, before, l.Entities())
}

func TestLedger_AddTransactionOverflowLeavesStateUntouched(t *testing.T) {
	l := New()
	require.NoError(t, l.AddEntity(mustEntity(t, 0, "Bank", AccountTypeAsset, 0)))
	require.NoError(t, l.AddEntity(mustEntity(t, 1, "Savings", AccountTypeAsset, 1e308)))
	before := l.Entities()

	// Debiting Savings pushes its balance past the float range.
	err := l.AddTransaction(mustTx(t, 0, 1, 0, 1e308, NoReceipt, 1, "Too much"))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	assert.Equal(t, before, l.Entities())
	assert.Empty(t, l.Transactions())
}

func TestLedger_RemoveMissing(t *testing.T) {
	l := bankAndAlice(t)
	_, ok := l.RemoveTransaction(42)
	assert.False(t, ok)
}

func TestLedger_RemoveMatchingTransaction(t *testing.T) {
	l := bankAndAlice(t)
	tx := mustTx(t, 0, 1, 0, 10, NoReceipt, 1, "Rent")
	require.NoError(t, l.AddTransaction(tx))

	other := tx
	other.Description = "Something else"
	_, ok := l.RemoveMatchingTransaction(other)
	assert.False(t, ok)

	_, ok = l.RemoveMatchingTransaction(tx)
	assert.True(t, ok)
}

func TestLedger_AddEntityDuplicates(t *testing.T) {
	l := bankAndAlice(t)

	err := l.AddEntity(mustEntity(t, 0, "Other", AccountTypeAsset, 0))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = l.AddEntity(mustEntity(t, 5, "  bANK ", AccountTypeExpense, 0))
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Len(t, l.Entities(), 2)
}

func TestLedger_UpdateEntity(t *testing.T) {
	l := bankAndAlice(t)

	renamed, err := mustEntity(t, 0, "Bank", AccountTypeAsset, 0).WithName("Checking")
	require.NoError(t, err)
	old, err := l.UpdateEntity(renamed)
	require.NoError(t, err)
	assert.Equal(t, "Bank", old.Name)
	got, _ := l.Entity(0)
	assert.Equal(t, "Checking", got.Name)

	// Renaming to its own name in another case is fine.
	same, err := got.WithName("CHECKING")
	require.NoError(t, err)
	_, err = l.UpdateEntity(same)
	assert.NoError(t, err)
}

func TestLedger_UpdateEntityErrors(t *testing.T) {
	l := bankAndAlice(t)

	_, err := l.UpdateEntity(mustEntity(t, 9, "Nobody", AccountTypeAsset, 0))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.UpdateEntity(mustEntity(t, 0, "Bank", AccountTypeExpense, 0))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = l.UpdateEntity(mustResident(t, 1, "Alice", 0, 0))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = l.UpdateEntity(mustEntity(t, 0, "alice", AccountTypeAsset, 0))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestLedger_CountersNeverDecrease(t *testing.T) {
	l := bankAndAlice(t)
	assert.Equal(t, 2, l.NextEntityID())

	require.NoError(t, l.AddEntity(mustEntity(t, 10, "Cash", AccountTypeAsset, 0)))
	assert.Equal(t, 11, l.NextEntityID())
	require.NoError(t, l.AddEntity(mustEntity(t, 4, "Rent", AccountTypeExpense, 0)))
	assert.Equal(t, 11, l.NextEntityID())

	require.NoError(t, l.AddTransaction(mustTx(t, 7, 1, 0, 1, NoReceipt, 1, "A")))
	assert.Equal(t, 8, l.NextTransactionID())
	l.RemoveTransaction(7)
	assert.Equal(t, 8, l.NextTransactionID())

	assert.Equal(t, 8, l.AllocTransactionID())
	assert.Equal(t, 9, l.NextTransactionID())
	assert.Equal(t, 11, l.AllocEntityID())
}

func TestLedger_EntityIDByName(t *testing.T) {
	l := bankAndAlice(t)
	id, ok := l.EntityIDByName(" alice")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = l.EntityIDByName("Bob")
	assert.False(t, ok)
}

func TestLedger_TransactionsOfInclusive(t *testing.T) {
	l := bankAndAlice(t)
	require.NoError(t, l.AddEntity(mustEntity(t, 2, "Cash", AccountTypeAsset, 0)))
	require.NoError(t, l.AddTransaction(mustTx(t, 0, 1, 0, 1, NoReceipt, 1, "Before")))
	require.NoError(t, l.AddTransaction(mustTx(t, 1, 1, 0, 1, NoReceipt, 2, "Start")))
	require.NoError(t, l.AddTransaction(mustTx(t, 2, 0, 1, 1, NoReceipt, 5, "End")))
	require.NoError(t, l.AddTransaction(mustTx(t, 3, 1, 0, 1, NoReceipt, 6, "After")))
	require.NoError(t, l.AddTransaction(mustTx(t, 4, 2, 0, 1, NoReceipt, 3, "Not Alice")))

	got := l.TransactionsOf(1, date(2024, 3, 2), date(2024, 3, 5))
	require.Len(t, got, 2)
	assert.Equal(t, "Start", got[0].Description)
	assert.Equal(t, "End", got[1].Description)
}

func TestLedger_FeedsFireAfterCommit(t *testing.T) {
	l := bankAndAlice(t)
	var entityChanges []Change[Entity]
	var txChanges []Change[Transaction]
	cancel := l.EntityChanges().Subscribe(func(c Change[Entity]) { entityChanges = append(entityChanges, c) })
	l.TransactionChanges().Subscribe(func(c Change[Transaction]) {
		// The ledger already holds the transaction when notified.
		assert.Equal(t, c.Added(), l.ContainsTransaction(c.ID))
		txChanges = append(txChanges, c)
	})

	require.NoError(t, l.AddTransaction(mustTx(t, 0, 1, 0, 10, NoReceipt, 1, "Rent")))
	require.Len(t, txChanges, 1)
	assert.True(t, txChanges[0].Added())
	assert.False(t, txChanges[0].Removed())
	require.Len(t, entityChanges, 2)
	assert.True(t, entityChanges[0].Added() && entityChanges[0].Removed(), "balance update is a replacement")

	// Failed operations are silent.
	assert.Error(t, l.AddTransaction(mustTx(t, 0, 1, 0, 10, NoReceipt, 1, "Rent")))
	assert.Len(t, txChanges, 1)

	cancel()
	l.RemoveTransaction(0)
	assert.Len(t, entityChanges, 2)
	require.Len(t, txChanges, 2)
	assert.True(t, txChanges[1].Removed())
	assert.False(t, txChanges[1].Added())
}
