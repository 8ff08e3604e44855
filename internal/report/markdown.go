package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"kharcha/internal/accounts"
	"kharcha/internal/core"
	"kharcha/internal/settings"
	"kharcha/internal/summary"
)

// HistoryLimit caps the entry list printed under a summary.
const HistoryLimit = 20

type table struct {
	sb strings.Builder
}

func (t *table) header(cols ...string) {
	t.row(cols...)
	seps := make([]string, len(cols))
	for i := range cols {
		seps[i] = "---"
	}
	t.row(seps...)
}

func (t *table) row(cells ...string) {
	t.sb.WriteString("|")
	for _, c := range cells {
		t.sb.WriteString(" ")
		t.sb.WriteString(cell(c))
		t.sb.WriteString(" |")
	}
	t.sb.WriteString("\n")
}

func (t *table) String() string { return t.sb.String() }

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Summary renders totals, the category breakdown and the most recent entries.
func Summary(title string, s summary.Summary, f Formatter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	var totals table
	totals.header("Expense", "Income", "Net", "Owed to me")
	net := s.TotalIncome.Sub(s.TotalExpense)
	totals.row(f.Format(s.TotalExpense), f.Format(s.TotalIncome), f.Signed(net), f.Format(s.SplitOutstanding))
	sb.WriteString(totals.String())

	if len(s.Categories) > 0 {
		sb.WriteString("\n## Categories\n\n")
		var cats table
		cats.header("Category", "Amount", "Share")
		for _, c := range s.Categories {
			cats.row(c.Name, f.Format(c.Amount), percent(c.Share))
		}
		sb.WriteString(cats.String())
	}

	history := summary.History(s.Entries, HistoryLimit)
	if len(history) > 0 {
		sb.WriteString("\n## Entries\n\n")
		sb.WriteString(entryTable(history, f))
	}
	return sb.String()
}

// Entries renders one page of the history under title.
func Entries(title string, records []core.Record, page, pages int, f Formatter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if len(records) == 0 {
		sb.WriteString("No entries.\n")
		return sb.String()
	}
	sb.WriteString(entryTable(records, f))
	if pages > 1 {
		fmt.Fprintf(&sb, "\nPage %d of %d\n", page, pages)
	}
	return sb.String()
}

func entryTable(records []core.Record, f Formatter) string {
	var t table
	t.header("Date", "ID", "Type", "Description", "Category", "Payment", "Amount", "Split")
	for _, r := range records {
		e := r.Entry
		pay := string(e.PayMethod)
		if e.PaySubType != "" {
			pay += " / " + e.PaySubType
		}
		if e.Transfer != nil {
			pay = e.Transfer.From + " → " + e.Transfer.To
		}
		split := ""
		if e.HasSplit() {
			split = string(e.Split.Status)
		}
		t.row(string(r.Day), string(e.ID), string(e.Type), e.Description, e.CategoryOrDefault(), pay, f.Format(e.Amount), split)
	}
	return t.String()
}

// Daily renders the totals of one day.
func Daily(d summary.DailySummary, f Formatter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Day)
	var t table
	t.header("Expense", "Income", "Net")
	t.row(f.Format(d.Expense), f.Format(d.Income), f.Signed(d.Net))
	sb.WriteString(t.String())
	return sb.String()
}

// Settings renders the lists, the payment mapping and the customization.
func Settings(v settings.View) string {
	var sb strings.Builder
	sb.WriteString("# Settings\n\n")
	lists := []struct {
		name   core.ListName
		values []string
	}{
		{core.Categories, v.Settings.Categories},
		{core.UpiApps, v.Settings.UpiApps},
		{core.Cards, v.Settings.Cards},
		{core.Banks, v.Settings.Banks},
	}
	var t table
	t.header("List", "Values")
	for _, l := range lists {
		t.row(string(l.name), strings.Join(l.values, ", "))
	}
	sb.WriteString(t.String())

	if len(v.PaymentBankMap) > 0 {
		keys := make([]string, 0, len(v.PaymentBankMap))
		for k := range v.PaymentBankMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\n## Payment mapping\n\n")
		var m table
		m.header("Instrument", "Bank")
		for _, k := range keys {
			bank := "(unmapped)"
			if b := v.PaymentBankMap[k]; b != nil {
				bank = *b
			}
			m.row(k, bank)
		}
		sb.WriteString(m.String())
	}

	fmt.Fprintf(&sb, "\nCurrency `%s`, accent `%s`\n", v.Custom.Currency, v.Custom.Accent)
	return sb.String()
}

// Balances renders the month overview of every bank.
func Balances(month string, rows []accounts.BankBalance, f Formatter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Balances %s\n\n", month)
	if len(rows) == 0 {
		sb.WriteString("No banks configured.\n")
		return sb.String()
	}
	var t table
	t.header("Bank", "Opening", "Balance", "Change")
	for _, b := range rows {
		name := b.Bank
		if !b.Listed {
			name += " (removed)"
		}
		t.row(name, f.Format(b.Initial), f.Format(b.Balance), f.Signed(b.Balance.Sub(b.Initial)))
	}
	sb.WriteString(t.String())
	return sb.String()
}

// DrillDown renders the movements of one bank in a month and their sum.
func DrillDown(month, bank string, rows []accounts.Row, f Formatter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n\n", bank, month)
	var t table
	t.header("Date", "Kind", "Description", "Details", "Amount")
	for _, r := range rows {
		t.row(string(r.Day), r.Kind, r.Description, r.Meta, f.Signed(r.Effect))
	}
	sb.WriteString(t.String())
	fmt.Fprintf(&sb, "\n**Closing balance:** %s\n", f.Format(accounts.Total(rows)))
	return sb.String()
}

func percent(share decimal.Decimal) string {
	return share.Shift(2).StringFixed(1) + "%"
}

// Render formats markdown for the terminal using a glamour standard style
// such as "auto", "dark", "light" or "notty".
func Render(md, style string, width int) (string, error) {
	if style == "" {
		style = "auto"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}
