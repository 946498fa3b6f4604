package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

const sampleDoc = `{
  "next_entity_id": 3,
  "next_transaction_id": 1,
  "next_receipt_id": 1,
  "accounting_entities": [
    {"type": "generic", "object": {"id": 0, "name": "Bank", "account_type": "asset", "balance": -20}},
    {"type": "resident", "object": {"id": 1, "name": "Gerrit", "previous_balance": 5, "balance": 20}}
  ],
  "transactions": [
    {"id": 0, "date": "2024-05-03", "debtor_id": 1, "creditor_id": 0, "receipt_id": 0, "amount": 20, "description": "Supermarket"}
  ],
  "receipts": [
    {"id": 0, "name": "Weekly shopping", "transaction_id_set": [0], "date": "2024-05-03", "payer": 1}
  ]
}`

func TestDecode(t *testing.T) {
	snap, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)

	require.Len(t, snap.Entities, 2)
	assert.Equal(t, ledger.AccountTypeAsset, snap.Entities[0].Type)
	assert.True(t, snap.Entities[1].IsResident())
	assert.Equal(t, 5.0, snap.Entities[1].PreviousBalance)

	require.Len(t, snap.Transactions, 1)
	tx := snap.Transactions[0]
	assert.Equal(t, ledger.ReceiptOf(0), tx.Receipt)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), tx.Date)

	require.Len(t, snap.Receipts, 1)
	assert.Equal(t, []int{0}, snap.Receipts[0].TransactionIDs())

	h, err := ledger.FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, 3, h.NextEntityID())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"unknown field", `{"accounts": []}`},
		{"unknown entity type", `{"accounting_entities": [{"type": "robot", "object": {"id": 0, "name": "Bank"}}]}`},
		{"bad account type", `{"accounting_entities": [{"type": "generic", "object": {"id": 0, "name": "Bank", "account_type": "cash"}}]}`},
		{"bad date", `{"transactions": [{"id": 0, "date": "03-05-2024", "debtor_id": 0, "creditor_id": 0, "amount": 1, "description": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncode_Shape(t *testing.T) {
	snap, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	data, err := Encode(snap)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"accounting_entities"`)
	assert.Contains(t, out, `"type": "resident"`)
	assert.Contains(t, out, `"previous_balance": 5`)
	assert.Contains(t, out, `"transaction_id_set": [`)
	assert.Contains(t, out, `"receipt_id": 0`)
}

func TestStore_MissingFileAndAtomicSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "ledger.json")
	s := New(path, nil)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Entities)

	want, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, want))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "ledger.json", entries[0].Name())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
