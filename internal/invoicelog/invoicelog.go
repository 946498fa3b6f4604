// Package invoicelog keeps an append-only CSV record of generated invoices.
package invoicelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Entry is one generated invoice.
type Entry struct {
	Timestamp    time.Time
	Resident     string
	From         time.Time
	To           time.Time
	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	Output       string
}

// Header is the CSV header for invoices.csv.
const Header = "timestamp,resident,from,to,start_balance,end_balance,output_file"

// File is the log location relative to the household directory.
const File = "logs/invoices.csv"

const (
	numFields       = 7
	colTimestamp    = 0
	colResident     = 1
	colFrom         = 2
	colTo           = 3
	colStartBalance = 4
	colEndBalance   = 5
	colOutput       = 6
)

// FromStatement builds the log entry for a statement written to output.
func FromStatement(st ledger.Statement, output string, now time.Time) Entry {
	return Entry{
		Timestamp:    now.UTC().Truncate(time.Second),
		Resident:     st.Resident.Name,
		From:         st.From,
		To:           st.To,
		StartBalance: decimal.NewFromFloat(st.StartBalance).Round(2),
		EndBalance:   decimal.NewFromFloat(st.EndBalance).Round(2),
		Output:       output,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colResident] = e.Resident
	row[colFrom] = e.From.Format(ledger.DateLayout)
	row[colTo] = e.To.Format(ledger.DateLayout)
	row[colStartBalance] = e.StartBalance.StringFixed(2)
	row[colEndBalance] = e.EndBalance.StringFixed(2)
	row[colOutput] = e.Output
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	from, err := ledger.ParseDate(record[colFrom])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing from: %w", err)
	}
	to, err := ledger.ParseDate(record[colTo])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing to: %w", err)
	}
	start, err := decimal.NewFromString(record[colStartBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing start_balance %q: %w", record[colStartBalance], err)
	}
	end, err := decimal.NewFromString(record[colEndBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing end_balance %q: %w", record[colEndBalance], err)
	}

	return Entry{
		Timestamp:    ts,
		Resident:     record[colResident],
		From:         from,
		To:           to,
		StartBalance: start,
		EndBalance:   end,
		Output:       record[colOutput],
	}, nil
}

// Append writes entries to <root>/logs/invoices.csv, creating the file and header if needed.
func Append(root string, entries []Entry) (err error) {
	path := filepath.Join(root, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening invoice log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/invoices.csv.
// Returns nil if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, File))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening invoice log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading invoice log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
