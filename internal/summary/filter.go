// Package summary aggregates ledger entries into period totals, category
// breakdowns and history listings. Everything here is a pure function of a
// ledger snapshot.
package summary

import (
	"strings"

	"kharcha/internal/core"
)

type PeriodKind string

const (
	AllTime PeriodKind = "all"
	ByDay   PeriodKind = "day"
	ByMonth PeriodKind = "month"
	ByYear  PeriodKind = "year"
)

// Period restricts records to a calendar day, month or year.
type Period struct {
	Kind  PeriodKind
	Value string
}

// ParsePeriod accepts "" or "all", YYYY, YYYY-MM and YYYY-MM-DD.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "all"):
		return Period{Kind: AllTime}, nil
	case len(s) == 4:
		if _, err := core.ParseMonth(s + "-01"); err != nil {
			return Period{}, core.Invalid("period", core.ErrInvalidDate)
		}
		return Period{Kind: ByYear, Value: s}, nil
	case len(s) == 7:
		m, err := core.ParseMonth(s)
		if err != nil {
			return Period{}, core.Invalid("period", err)
		}
		return Period{Kind: ByMonth, Value: m}, nil
	default:
		d, err := core.ParseDay(s)
		if err != nil {
			return Period{}, core.Invalid("period", err)
		}
		return Period{Kind: ByDay, Value: string(d)}, nil
	}
}

// Day, Month and Year build periods from already validated values.
func Day(d core.Day) Period { return Period{Kind: ByDay, Value: string(d)} }
func Month(m string) Period { return Period{Kind: ByMonth, Value: m} }
func Year(y string) Period { return Period{Kind: ByYear, Value: y} }

// Contains reports whether d falls inside the period.
func (p Period) Contains(d core.Day) bool {
	switch p.Kind {
	case ByDay:
		return string(d) == p.Value
	case ByMonth, ByYear:
		return strings.HasPrefix(string(d), p.Value)
	}
	return true
}

func (p Period) String() string {
	if p.Kind == AllTime || p.Kind == "" {
		return string(AllTime)
	}
	return p.Value
}

// TypeFilter selects entries by kind. Split is orthogonal to the entry type.
type TypeFilter string

const (
	AnyType      TypeFilter = "all"
	ExpenseOnly  TypeFilter = "Expense"
	IncomeOnly   TypeFilter = "Income"
	SplitOnly    TypeFilter = "Split"
	TransferOnly TypeFilter = "Transfer"
)

func ParseTypeFilter(s string) (TypeFilter, error) {
	switch t := TypeFilter(strings.TrimSpace(s)); t {
	case "":
		return AnyType, nil
	case AnyType, ExpenseOnly, IncomeOnly, SplitOnly, TransferOnly:
		return t, nil
	}
	return "", core.Invalid("type", core.ErrInvalidType)
}

func (t TypeFilter) matches(e core.Entry) bool {
	switch t {
	case ExpenseOnly:
		return e.Type == core.Expense && !e.HasSplit()
	case IncomeOnly:
		return e.Type == core.Income
	case SplitOnly:
		return e.HasSplit()
	case TransferOnly:
		return e.Type == core.Transfer
	}
	return true
}

// Filter is the predicate applied before aggregation. Zero values mean
// unrestricted.
type Filter struct {
	Period    Period
	Type      TypeFilter
	PayMethod core.PayMethod
	Category  string
}

// matchesScope applies every restriction except the category one.
func (f Filter) matchesScope(r core.Record) bool {
	if !f.Period.Contains(r.Day) {
		return false
	}
	if !f.Type.matches(r.Entry) {
		return false
	}
	if f.PayMethod != "" && r.Entry.PayMethod != f.PayMethod {
		return false
	}
	return true
}

// Match reports whether r passes every restriction of f.
func (f Filter) Match(r core.Record) bool {
	if !f.matchesScope(r) {
		return false
	}
	return f.Category == "" || r.Entry.CategoryOrDefault() == f.Category
}
