// Package journal reads and writes ledger transactions as CSV. Debtor and
// creditor are written by entity name so a file can be edited by hand and
// imported into another ledger.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Header is the CSV header for transaction files.
const Header = "id,date,debtor,creditor,amount,description,receipt_id"

const (
	numFields    = 7
	colID        = 0
	colDate      = 1
	colDebtor    = 2
	colCreditor  = 3
	colAmount    = 4
	colDesc      = 5
	colReceiptID = 6
)

// Row is one transaction line. A row without an id gets one assigned on import.
type Row struct {
	ID          int
	HasID       bool
	Date        string
	Debtor      string
	Creditor    string
	Amount      decimal.Decimal
	Description string
	Receipt     ledger.ReceiptRef
}

// EntityNames resolves entity ids to names.
type EntityNames interface {
	Entity(id int) (ledger.Entity, bool)
}

// FromTransaction converts t to a row, naming its endpoints through names.
func FromTransaction(t ledger.Transaction, names EntityNames) (Row, error) {
	debtor, ok := names.Entity(t.DebtorID)
	if !ok {
		return Row{}, fmt.Errorf("transaction %d: debtor %d: %w", t.ID, t.DebtorID, ledger.ErrReferentialIntegrity)
	}
	creditor, ok := names.Entity(t.CreditorID)
	if !ok {
		return Row{}, fmt.Errorf("transaction %d: creditor %d: %w", t.ID, t.CreditorID, ledger.ErrReferentialIntegrity)
	}
	return Row{
		ID:          t.ID,
		HasID:       true,
		Date:        t.Date.Format(ledger.DateLayout),
		Debtor:      debtor.Name,
		Creditor:    creditor.Name,
		Amount:      decimal.NewFromFloat(t.Amount),
		Description: t.Description,
		Receipt:     t.Receipt,
	}, nil
}

// Export writes txs to w with a header row.
func Export(w io.Writer, txs []ledger.Transaction, names EntityNames) error {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		r, err := FromTransaction(t, names)
		if err != nil {
			return err
		}
		rows = append(rows, r)
	}
	return WriteRows(w, rows)
}

// ReadRows reads all rows from a transaction CSV reader.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transaction CSV: %w", err)
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

// WriteRows writes rows to w, including the header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	if row.HasID {
		rec[colID] = strconv.Itoa(row.ID)
	}
	rec[colDate] = row.Date
	rec[colDebtor] = row.Debtor
	rec[colCreditor] = row.Creditor
	rec[colAmount] = row.Amount.StringFixed(2)
	rec[colDesc] = row.Description
	if row.Receipt.Valid {
		rec[colReceiptID] = strconv.Itoa(row.Receipt.ID)
	}
	return rec
}

// UnmarshalRow converts a CSV record to a Row. Only the field syntax is
// checked here; see Validate for checks against a ledger.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	row := Row{
		Date:        strings.TrimSpace(rec[colDate]),
		Debtor:      strings.TrimSpace(rec[colDebtor]),
		Creditor:    strings.TrimSpace(rec[colCreditor]),
		Description: rec[colDesc],
	}

	if s := strings.TrimSpace(rec[colID]); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, fmt.Errorf("parsing id %q: %w", s, err)
		}
		row.ID, row.HasID = id, true
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[colAmount]))
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}
	row.Amount = amount

	if s := strings.TrimSpace(rec[colReceiptID]); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, fmt.Errorf("parsing receipt_id %q: %w", s, err)
		}
		row.Receipt = ledger.ReceiptOf(id)
	}
	return row, nil
}
