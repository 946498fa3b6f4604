package accounts

import (
	"bytes"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

func TestWriteAndRead(t *testing.T) {
	bank, err := ledger.NewEntity(0, "Bank", ledger.AccountTypeAsset, 250.5)
	require.NoError(t, err)
	gerrit, err := ledger.NewResident(3, "Gerrit", -12.25, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteEntities(&buf, []ledger.Entity{bank, gerrit}))
	assert.Equal(t, Header+"\n0,Bank,generic,asset,250.5,\n3,Gerrit,resident,,4,-12.25\n", buf.String())

	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for i, want := range []ledger.Entity{bank, gerrit} {
		require.True(t, rows[i].HasID)
		got, err := rows[i].Entity(rows[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/entities.csv")
	require.NoError(t, err)
	defer f.Close()

	rows, err := ReadRows(f)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, ledger.AccountTypeRevenue, rows[2].Type)
	assert.False(t, rows[3].HasID)
	assert.Equal(t, ledger.KindResident, rows[3].Kind)
	assert.Equal(t, ledger.AccountTypeLiability, rows[3].Type)
	assert.True(t, decimal.RequireFromString("-12.25").Equal(rows[3].PreviousBalance))
	assert.True(t, rows[4].Balance.IsZero())
}

func TestUnmarshalRow_Defaults(t *testing.T) {
	row, err := UnmarshalRow([]string{"", "Cash", "", "asset", "", ""})
	require.NoError(t, err)
	assert.Equal(t, ledger.KindGeneric, row.Kind)
	assert.True(t, row.Balance.IsZero())

	e, err := row.Entity(9)
	require.NoError(t, err)
	assert.Equal(t, 9, e.ID)
	assert.False(t, e.IsResident())
}

func TestUnmarshalRow_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  []string
		want string
	}{
		{"field count", []string{"1"}, "expected 6 fields"},
		{"id", []string{"x", "Cash", "generic", "asset", "0", ""}, "parsing id"},
		{"kind", []string{"", "Cash", "robot", "asset", "0", ""}, "unknown kind"},
		{"type", []string{"", "Cash", "generic", "cash", "0", ""}, "unknown account type"},
		{"balance", []string{"", "Cash", "generic", "asset", "ten", ""}, "parsing balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRow(tt.rec)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRowEntity_InvalidName(t *testing.T) {
	row, err := UnmarshalRow([]string{"", "Cash 2", "generic", "asset", "0", ""})
	require.NoError(t, err)
	_, err = row.Entity(0)
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)
}
