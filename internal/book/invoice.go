package book

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bolkhuis/kasboek/internal/config"
	"github.com/bolkhuis/kasboek/internal/invoice"
	"github.com/bolkhuis/kasboek/internal/invoicelog"
	"github.com/bolkhuis/kasboek/internal/ledger"
)

// InvoiceRequest selects the resident and period of an invoice.
type InvoiceRequest struct {
	ResidentID int
	From, To   time.Time
	// Output is the invoice file. Empty means <output_dir>/<name>-<to>.html.
	Output string
	// Now stamps the invoice log entry. Zero means time.Now.
	Now time.Time
}

// Template loads the configured invoice template, falling back to the
// bundled one when the file does not exist.
func (b *Book) Template() (*invoice.Template, error) {
	path := config.Resolve(b.Dir, b.Config.Invoice.Template)
	t, err := invoice.LoadTemplate(path)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Warn("invoice template not found, using the default", "path", path)
		return invoice.ParseTemplate(strings.NewReader(invoice.DefaultTemplate()))
	}
	return t, err
}

// Currency returns the configured money format.
func (b *Book) Currency() invoice.Currency {
	c := b.Config.Invoice.Currency
	return invoice.Currency{
		Symbol:           c.Symbol,
		DecimalSeparator: c.DecimalSeparator,
		GroupSeparator:   c.GroupSeparator,
		SymbolAfter:      c.SymbolAfter,
	}
}

// InvoicePath is the default output file for a resident's invoice ending on to.
func (b *Book) InvoicePath(resident ledger.Entity, to time.Time) string {
	name := strings.ReplaceAll(resident.Name, " ", "_")
	return filepath.Join(config.Resolve(b.Dir, b.Config.Invoice.OutputDir),
		fmt.Sprintf("%s-%s.html", name, to.Format(ledger.DateLayout)))
}

// Invoice writes a resident's invoice, moves the resident's previous balance
// forward, records the invoice in the log and saves the ledger. A checkpoint
// made before writing the file failed is saved too.
func (b *Book) Invoice(ctx context.Context, req InvoiceRequest) (ledger.Statement, string, error) {
	tmpl, err := b.Template()
	if err != nil {
		return ledger.Statement{}, "", err
	}
	various, err := b.Various()
	if err != nil {
		return ledger.Statement{}, "", fmt.Errorf("invoice.various_label: %w", err)
	}
	resident, ok := b.Ledger.Entity(req.ResidentID)
	if !ok {
		return ledger.Statement{}, "", fmt.Errorf("%w: resident %d", ledger.ErrNotFound, req.ResidentID)
	}
	out := req.Output
	if out == "" {
		out = b.InvoicePath(resident, req.To)
	}
	out = config.Resolve(b.Dir, out)

	gen := &invoice.Generator{
		Ledger:   b.Ledger,
		Template: tmpl,
		Currency: b.Currency(),
		Various:  various,
		Logger:   b.logger,
	}
	st, genErr := gen.GenerateFile(out, req.ResidentID, req.From, req.To, b.Config.Invoice.IntroText)
	if genErr == nil {
		now := req.Now
		if now.IsZero() {
			now = time.Now()
		}
		rel := out
		if r, err := filepath.Rel(b.Dir, out); err == nil {
			rel = r
		}
		if err := invoicelog.Append(b.Dir, []invoicelog.Entry{invoicelog.FromStatement(st, rel, now)}); err != nil {
			genErr = fmt.Errorf("recording invoice: %w", err)
		} else {
			b.Stage(out, invoicelog.File)
		}
	}

	msg := fmt.Sprintf("invoice: %s %s..%s", st.Resident.Name,
		req.From.Format(ledger.DateLayout), req.To.Format(ledger.DateLayout))
	return st, out, errors.Join(genErr, b.Save(ctx, msg))
}
