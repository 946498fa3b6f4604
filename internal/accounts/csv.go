// Package accounts holds the starter chart of accounts and reads and writes
// entity lists as CSV.
package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Header is the CSV header for entity files.
const Header = "id,name,kind,account_type,balance,previous_balance"

const (
	numFields   = 6
	colID       = 0
	colName     = 1
	colKind     = 2
	colType     = 3
	colBalance  = 4
	colPrevious = 5
)

// Row is one entity line. A row without an id gets one assigned on import.
type Row struct {
	ID              int
	HasID           bool
	Name            string
	Kind            ledger.EntityKind
	Type            ledger.AccountType
	Balance         decimal.Decimal
	PreviousBalance decimal.Decimal
}

// Entity builds the ledger entity for the row with the given id.
func (r Row) Entity(id int) (ledger.Entity, error) {
	if r.Kind == ledger.KindResident {
		return ledger.NewResident(id, r.Name, r.PreviousBalance.InexactFloat64(), r.Balance.InexactFloat64())
	}
	return ledger.NewEntity(id, r.Name, r.Type, r.Balance.InexactFloat64())
}

// FromEntity converts e to a row.
func FromEntity(e ledger.Entity) Row {
	return Row{
		ID:              e.ID,
		HasID:           true,
		Name:            e.Name,
		Kind:            e.Kind,
		Type:            e.Type,
		Balance:         decimal.NewFromFloat(e.Balance),
		PreviousBalance: decimal.NewFromFloat(e.PreviousBalance),
	}
}

// ReadRows reads an entity CSV file.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entity CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteEntities writes entities as CSV, including the header.
func WriteEntities(w io.Writer, entities []ledger.Entity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entities {
		if err := cw.Write(MarshalRow(FromEntity(e))); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	if r.HasID {
		rec[colID] = strconv.Itoa(r.ID)
	}
	rec[colName] = r.Name
	rec[colKind] = string(r.Kind)
	rec[colBalance] = r.Balance.String()
	if r.Kind == ledger.KindResident {
		rec[colPrevious] = r.PreviousBalance.String()
	} else {
		rec[colType] = string(r.Type)
	}
	return rec
}

// UnmarshalRow converts a CSV record to a Row. An empty kind means generic
// and an empty balance means zero.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	row := Row{Name: strings.TrimSpace(rec[colName]), Kind: ledger.KindGeneric}
	if s := strings.TrimSpace(rec[colID]); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, fmt.Errorf("parsing id %q: %w", s, err)
		}
		row.ID, row.HasID = id, true
	}

	switch kind := ledger.EntityKind(strings.TrimSpace(rec[colKind])); kind {
	case "", ledger.KindGeneric:
		t, err := ledger.ParseAccountType(strings.TrimSpace(rec[colType]))
		if err != nil {
			return Row{}, err
		}
		row.Type = t
	case ledger.KindResident:
		row.Kind = kind
		row.Type = ledger.AccountTypeLiability
	default:
		return Row{}, fmt.Errorf("unknown kind %q", kind)
	}

	var err error
	if row.Balance, err = parseAmount(rec[colBalance]); err != nil {
		return Row{}, fmt.Errorf("parsing balance: %w", err)
	}
	if row.PreviousBalance, err = parseAmount(rec[colPrevious]); err != nil {
		return Row{}, fmt.Errorf("parsing previous_balance: %w", err)
	}
	return row, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
