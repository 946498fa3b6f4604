package invoice

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// VersionLine must be the first line of every template.
const VersionLine = "<!-- version:1 -->"

// Placeholder tokens. Each must appear exactly once in a template.
const (
	FieldName         = "${name}"
	FieldIntroText    = "${intro_text}"
	FieldStartBalance = "${start_balance}"
	FieldEndBalance   = "${end_balance}"
	FieldTableData    = "${table_data}"
)

// Fields lists the placeholders in the order they are checked.
var Fields = []string{FieldName, FieldIntroText, FieldStartBalance, FieldEndBalance, FieldTableData}

var (
	// ErrUnsupportedVersion is returned for a template without the version:1 header.
	ErrUnsupportedVersion = errors.New("unsupported template version")
	// ErrTemplateFormat is returned for a template with a missing or repeated field.
	ErrTemplateFormat = errors.New("illegal template format")
)

//go:embed default_template.html
var defaultTemplate string

// DefaultTemplate returns the bundled HTML template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Template is a validated invoice template. The version line is not part
// of the rendered output.
type Template struct {
	body string
}

// Values are the substitutions for one invoice.
type Values struct {
	Name         string
	IntroText    string
	StartBalance string
	EndBalance   string
	TableData    string
}

// ParseTemplate reads and validates a template.
func ParseTemplate(r io.Reader) (*Template, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	version := strings.TrimRight(first, "\r\n")
	if version != VersionLine {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	body := string(rest)
	for _, f := range Fields {
		switch n := strings.Count(body, f); {
		case n == 0:
			return nil, fmt.Errorf("%w: field %s is missing", ErrTemplateFormat, f)
		case n > 1:
			return nil, fmt.Errorf("%w: field %s appears %d times", ErrTemplateFormat, f, n)
		}
	}
	return &Template{body: body}, nil
}

// LoadTemplate reads and validates the template file at path.
func LoadTemplate(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer f.Close()
	return ParseTemplate(f)
}

// Render writes the template with every field substituted.
func (t *Template) Render(w io.Writer, v Values) error {
	r := strings.NewReplacer(
		FieldName, v.Name,
		FieldIntroText, v.IntroText,
		FieldStartBalance, v.StartBalance,
		FieldEndBalance, v.EndBalance,
		FieldTableData, v.TableData,
	)
	if _, err := r.WriteString(w, t.body); err != nil {
		return fmt.Errorf("writing invoice: %w", err)
	}
	return nil
}
