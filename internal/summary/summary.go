package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

type (
	CategoryShare struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
		// Share is Amount over the sum of all category amounts, in [0, 1].
		Share decimal.Decimal `json:"share"`
	}

	Summary struct {
		TotalExpense        decimal.Decimal `json:"totalExpense"`
		TotalIncome         decimal.Decimal `json:"totalIncome"`
		SplitOutstanding    decimal.Decimal `json:"splitOutstanding"`
		Categories          []CategoryShare `json:"categories"`
		AvailableCategories []string        `json:"availableCategories"`
		Entries             []core.Record   `json:"entries"`
	}

	DailySummary struct {
		Day     core.Day        `json:"day"`
		Expense decimal.Decimal `json:"expense"`
		Income  decimal.Decimal `json:"income"`
		Net     decimal.Decimal `json:"net"`
	}
)

// Flatten lists every entry tagged with its day. Order is unspecified.
func Flatten(l *core.Ledger) []core.Record {
	out := make([]core.Record, 0, l.Len())
	for day, entries := range l.Days {
		for _, e := range entries {
			out = append(out, core.Record{Day: day, Entry: e})
		}
	}
	return out
}

// countsAsExpense covers everything that is neither income nor an internal
// movement between accounts.
func countsAsExpense(e core.Entry) bool {
	return e.Type != core.Income && e.Type != core.Transfer
}

// Summarize filters records and computes totals, the category breakdown and
// the history listing of what passed.
func Summarize(records []core.Record, f Filter) Summary {
	s := Summary{
		TotalExpense:     decimal.Zero,
		TotalIncome:      decimal.Zero,
		SplitOutstanding: decimal.Zero,
	}

	available := map[string]struct{}{}
	byCategory := map[string]decimal.Decimal{}
	var matched []core.Record

	for _, r := range records {
		if !f.matchesScope(r) {
			continue
		}
		available[r.Entry.CategoryOrDefault()] = struct{}{}
		if f.Category != "" && r.Entry.CategoryOrDefault() != f.Category {
			continue
		}
		matched = append(matched, r)

		e := r.Entry
		switch {
		case e.Type == core.Income:
			s.TotalIncome = s.TotalIncome.Add(e.Amount)
		case countsAsExpense(e):
			s.TotalExpense = s.TotalExpense.Add(e.Amount)
			cat := e.CategoryOrDefault()
			byCategory[cat] = byCategory[cat].Add(e.Amount)
		}
		if e.HasSplit() {
			s.SplitOutstanding = s.SplitOutstanding.Add(e.Split.Outstanding())
		}
	}

	s.Categories = breakdown(byCategory)
	s.AvailableCategories = make([]string, 0, len(available))
	for c := range available {
		s.AvailableCategories = append(s.AvailableCategories, c)
	}
	sort.Strings(s.AvailableCategories)
	s.Entries = History(matched, 0)
	return s
}

// breakdown orders categories by amount, largest first.
func breakdown(byCategory map[string]decimal.Decimal) []CategoryShare {
	sum := decimal.Zero
	for _, v := range byCategory {
		sum = sum.Add(v)
	}
	out := make([]CategoryShare, 0, len(byCategory))
	for name, amount := range byCategory {
		share := decimal.Zero
		if !sum.IsZero() {
			share = amount.DivRound(sum, 4)
		}
		out = append(out, CategoryShare{Name: name, Amount: amount, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// History sorts records by day, newest first, then by id, newest first. A
// positive limit keeps only the first limit records.
func History(records []core.Record, limit int) []core.Record {
	out := append([]core.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		return out[i].Entry.ID.Compare(out[j].Entry.ID) > 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Page returns the 1-based page of records and the number of pages. A
// non-positive size returns everything as a single page.
func Page(records []core.Record, page, size int) ([]core.Record, int) {
	if size <= 0 {
		return records, 1
	}
	pages := (len(records) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], pages
}

// Daily totals a single day bucket.
func Daily(l *core.Ledger, day core.Day) DailySummary {
	d := DailySummary{Day: day, Expense: decimal.Zero, Income: decimal.Zero}
	for _, e := range l.Days[day] {
		switch {
		case e.Type == core.Income:
			d.Income = d.Income.Add(e.Amount)
		case countsAsExpense(e):
			d.Expense = d.Expense.Add(e.Amount)
		}
	}
	d.Net = d.Income.Sub(d.Expense)
	return d
}
