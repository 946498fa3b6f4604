package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency controls how amounts are printed.
type Currency struct {
	Symbol           string
	DecimalSeparator string
	GroupSeparator   string
	SymbolAfter      bool
}

// Euro prints amounts the German way, e.g. "1.234,56 €".
var Euro = Currency{Symbol: "€", DecimalSeparator: ",", GroupSeparator: ".", SymbolAfter: true}

// Format rounds v to cents and prints it with grouping and symbol.
func (c Currency) Format(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if !c.SymbolAfter && c.Symbol != "" {
		b.WriteString(c.Symbol)
		b.WriteByte(' ')
	}
	b.WriteString(group(intPart, c.GroupSeparator))
	b.WriteString(c.DecimalSeparator)
	b.WriteString(frac)
	if c.SymbolAfter && c.Symbol != "" {
		b.WriteString(" ")
		b.WriteString(c.Symbol)
	}
	return b.String()
}

// group inserts sep between every three digits from the right.
func group(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
