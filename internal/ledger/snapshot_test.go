package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(t *testing.T) *HouseholdLedger {
	t.Helper()
	h := household(t)
	require.NoError(t, h.AddReceipt(mustReceipt(t, 3, "Supermarket", nil, 4, 2)))
	require.NoError(t, h.AddTransaction(mustTx(t, 0, 2, 0, 10, ReceiptOf(3), 4, "Bread")))
	require.NoError(t, h.AddTransaction(mustTx(t, 1, 2, 0, 20, ReceiptOf(3), 4, "Cheese")))
	require.NoError(t, h.AddTransaction(mustTx(t, 5, 1, 0, 12.5, NoReceipt, 6, "Market")))
	require.NoError(t, h.Checkpoint(2, -30))
	h.AllocEntityID()
	return h
}

func TestSnapshot_RoundTrip(t *testing.T) {
	h := populated(t)
	s := h.Snapshot()

	assert.Equal(t, 4, s.NextEntityID)
	assert.Equal(t, 6, s.NextTransactionID)
	assert.Equal(t, 4, s.NextReceiptID)
	require.Len(t, s.Entities, 3)
	assert.Equal(t, 0, s.Entities[0].ID)
	require.Len(t, s.Receipts, 1)
	assert.Equal(t, []int{0, 1}, s.Receipts[0].TransactionIDs())

	back, err := FromSnapshot(s)
	require.NoError(t, err)
	assert.True(t, h.Equal(back))
	assert.Equal(t, h.NextEntityID(), back.NextEntityID())
	assert.Equal(t, h.NextTransactionID(), back.NextTransactionID())
	assert.Equal(t, h.NextReceiptID(), back.NextReceiptID())
}

func TestFromSnapshot_DerivesCounters(t *testing.T) {
	s := populated(t).Snapshot()
	s.NextEntityID, s.NextTransactionID, s.NextReceiptID = 0, 0, 0

	h, err := FromSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t, 3, h.NextEntityID())
	assert.Equal(t, 6, h.NextTransactionID())
	assert.Equal(t, 4, h.NextReceiptID())

	empty, err := FromSnapshot(Snapshot{})
	require.NoError(t, err)
	assert.Zero(t, empty.NextEntityID())
}

func TestFromSnapshot_DoesNotReapplyTransactions(t *testing.T) {
	s := populated(t).Snapshot()
	h, err := FromSnapshot(s)
	require.NoError(t, err)
	bank, _ := h.Entity(0)
	assert.Equal(t, s.Entities[0].Balance, bank.Balance)
}

func TestFromSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   error
	}{
		{"duplicate entity id", func(s *Snapshot) { s.Entities = append(s.Entities, s.Entities[0]) }, ErrDuplicateKey},
		{"duplicate entity name", func(s *Snapshot) {
			e := s.Entities[0]
			e.ID = 50
			s.Entities = append(s.Entities, e)
		}, ErrDuplicateName},
		{"dangling debtor", func(s *Snapshot) { s.Transactions[2].DebtorID = 77 }, ErrReferentialIntegrity},
		{"duplicate transaction id", func(s *Snapshot) { s.Transactions[1].ID = 0 }, ErrDuplicateKey},
		{"missing payer", func(s *Snapshot) { s.Receipts[0].PayerID = 77 }, ErrReferentialIntegrity},
		{"missing receipt", func(s *Snapshot) { s.Transactions[2].Receipt = ReceiptOf(9) }, ErrReferentialIntegrity},
		{"receipt does not list transaction", func(s *Snapshot) { s.Transactions[2].Receipt = ReceiptOf(3) }, ErrConflict},
		{"receipt lists missing transaction", func(s *Snapshot) {
			r := s.Receipts[0].Clone()
			r.RegisterTransaction(99)
			s.Receipts[0] = r
		}, ErrReferentialIntegrity},
		{"invalid entity", func(s *Snapshot) { s.Entities[0].Name = "" }, ErrInvalidArgument},
		{"invalid transaction", func(s *Snapshot) { s.Transactions[0].Amount = -1 }, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := populated(t).Snapshot()
			tt.mutate(&s)
			_, err := FromSnapshot(s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
