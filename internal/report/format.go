// Package report turns summaries and balances into markdown tables and
// renders them for the terminal.
package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

const fraction = 2

// Formatter prints amounts with the ledger's currency symbol.
type Formatter struct {
	f *money.Formatter
}

// NewFormatter builds a formatter for symbol. A known ISO code such as "INR"
// uses that currency's own formatting rules; anything else is taken as a
// grapheme placed before the amount.
func NewFormatter(symbol string) Formatter {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		symbol = core.DefaultCustomization().Currency
	}
	if len(symbol) == 3 {
		if c := money.GetCurrency(strings.ToUpper(symbol)); c != nil && c.Fraction == fraction {
			return Formatter{f: c.Formatter()}
		}
	}
	return Formatter{f: money.NewFormatter(fraction, ".", ",", symbol, "$1")}
}

// Format rounds d to two places and prints it, e.g. "₹1,234.50".
func (f Formatter) Format(d decimal.Decimal) string {
	minor := core.Round2(d).Shift(fraction)
	return f.f.Format(minor.IntPart())
}

// Signed prefixes positive amounts with "+" and prints zero as "-".
func (f Formatter) Signed(d decimal.Decimal) string {
	switch {
	case d.IsZero():
		return "-"
	case d.IsPositive():
		return "+" + f.Format(d)
	}
	return f.Format(d)
}
