package invoice

import (
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bolkhuis/kasboek/internal/ledger"
)

// Intro placeholders replaced by the period bounds as yyyy-mm-dd.
const (
	IntroStartDate = "${start_date}"
	IntroEndDate   = "${end_date}"
)

// FillIntro replaces the period placeholders in an intro text.
func FillIntro(text string, from, to time.Time) string {
	return strings.NewReplacer(
		IntroStartDate, from.Format(ledger.DateLayout),
		IntroEndDate, to.Format(ledger.DateLayout),
	).Replace(text)
}

// Rows renders statement lines as HTML table rows.
func Rows(lines []ledger.StatementLine, c Currency) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("\t\t<tr>\n")
		for _, cell := range []string{l.DateString(), l.Counterparty, l.Description, c.Format(l.Amount)} {
			b.WriteString("\t\t\t<td>\n\t\t\t\t")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("\n\t\t\t</td>\n")
		}
		b.WriteString("\t\t</tr>\n")
	}
	return b.String()
}

// Generator renders resident invoices from a household ledger.
type Generator struct {
	Ledger   *ledger.HouseholdLedger
	Template *Template
	Currency Currency
	// Various is the counterparty shown on summarised receipt lines.
	Various ledger.Entity
	Logger  *slog.Logger
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}

// Generate writes the invoice of a resident for [from, to] to w. Once the
// statement has been computed the resident's previous balance is moved to
// the end balance, also when writing fails.
func (g *Generator) Generate(w io.Writer, residentID int, from, to time.Time, intro string) (ledger.Statement, error) {
	st, err := g.statement(residentID, from, to)
	if err != nil {
		return ledger.Statement{}, err
	}
	return st, g.finish(st, g.render(w, st, intro))
}

// GenerateFile is Generate writing to a newly created file at path.
func (g *Generator) GenerateFile(path string, residentID int, from, to time.Time, intro string) (ledger.Statement, error) {
	st, err := g.statement(residentID, from, to)
	if err != nil {
		return ledger.Statement{}, err
	}
	return st, g.finish(st, g.writeFile(path, st, intro))
}

func (g *Generator) statement(residentID int, from, to time.Time) (ledger.Statement, error) {
	if g.Template == nil {
		return ledger.Statement{}, fmt.Errorf("%w: no template", ErrTemplateFormat)
	}
	st, err := g.Ledger.Statement(residentID, from, to, g.Various)
	if err != nil {
		return ledger.Statement{}, fmt.Errorf("computing statement: %w", err)
	}
	g.logger().Debug("statement computed",
		"resident", st.Resident.Name, "lines", len(st.Lines),
		"start_balance", st.StartBalance, "end_balance", st.EndBalance)
	return st, nil
}

func (g *Generator) writeFile(path string, st ledger.Statement, intro string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating invoice dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating invoice file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing invoice file: %w", cerr)
		}
	}()
	return g.render(f, st, intro)
}

func (g *Generator) render(w io.Writer, st ledger.Statement, intro string) error {
	c := g.Currency
	if c == (Currency{}) {
		c = Euro
	}
	return g.Template.Render(w, Values{
		Name:         html.EscapeString(st.Resident.Name),
		IntroText:    FillIntro(intro, st.From, st.To),
		StartBalance: c.Format(st.StartBalance),
		EndBalance:   c.Format(st.EndBalance),
		TableData:    Rows(st.Lines, c),
	})
}

// finish checkpoints the resident whatever renderErr is and reports both.
func (g *Generator) finish(st ledger.Statement, renderErr error) error {
	log := g.logger().With("resident", st.Resident.Name)
	if renderErr != nil {
		log.Warn("invoice rendering failed, checkpointing anyway", "error", renderErr)
	}
	cpErr := g.Ledger.Checkpoint(st.Resident.ID, st.EndBalance)
	if cpErr == nil {
		log.Info("previous balance updated", "previous_balance", st.EndBalance)
	}
	return errors.Join(renderErr, cpErr)
}
