package accounts

import (
	"sort"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// InitKind marks the synthetic opening balance row of a drill-down.
const InitKind = "Init"

type (
	Row struct {
		Day         core.Day        `json:"date"`
		ID          core.EntryID    `json:"id,omitempty"`
		Description string          `json:"description"`
		Kind        string          `json:"kind"`
		Amount      decimal.Decimal `json:"amount"`
		// Effect is Amount signed by its impact on the drilled bank.
		Effect      decimal.Decimal `json:"effect"`
		Meta        string          `json:"meta"`
		Category    string          `json:"category,omitempty"`
		PayMethod   core.PayMethod  `json:"payMethod,omitempty"`
	}

	// DrillFilter narrows a drill-down. Zero values mean unrestricted.
	DrillFilter struct {
		Kind      string
		PayMethod core.PayMethod
		Category  string
		Day       core.Day
	}
)

func (f DrillFilter) match(r Row) bool {
	if f.Kind != "" && f.Kind != "all" && r.Kind != f.Kind {
		return false
	}
	if f.PayMethod != "" && r.PayMethod != f.PayMethod {
		return false
	}
	if f.Category != "" && (r.Kind == InitKind || r.Category != f.Category) {
		return false
	}
	if f.Day != "" && r.Day != f.Day {
		return false
	}
	return true
}

// DrillDown lists the month's transactions touching bank in day order,
// preceded by the opening balance row when one is stored.
func DrillDown(l *core.Ledger, month, bank string, f DrillFilter) []Row {
	var rows []Row
	if initial, ok := l.InitialBalance(month, bank); ok {
		rows = append(rows, Row{
			Day:         core.Day(month + "-01"),
			Description: "Initial balance",
			Kind:        InitKind,
			Amount:      initial,
			Effect:      initial,
		})
	}
	for _, day := range monthDays(l, month) {
		for _, e := range l.Days[day] {
			if !Touches(e, bank, l.PaymentBankMap) {
				continue
			}
			rows = append(rows, Row{
				Day:         day,
				ID:          e.ID,
				Description: e.Description,
				Kind:        string(e.Type),
				Amount:      e.Amount,
				Effect:      effect(e, bank),
				Meta:        meta(e),
				Category:    e.CategoryOrDefault(),
				PayMethod:   e.PayMethod,
			})
		}
	}

	out := rows[:0]
	for _, r := range rows {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Total sums the signed effects of rows. Over an unfiltered drill-down it
// equals the bank's balance for the month.
func Total(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Effect)
	}
	return total
}

func effect(e core.Entry, bank string) decimal.Decimal {
	switch {
	case e.Type == core.Transfer:
		net := decimal.Zero
		if e.Transfer.To == bank {
			net = net.Add(e.Amount)
		}
		if e.Transfer.From == bank {
			net = net.Sub(e.Amount)
		}
		return net
	case e.Type == core.Income:
		return e.Amount
	default:
		return e.Amount.Neg()
	}
}

// DrillCategories returns the sorted categories of the month's transactions
// touching bank.
func DrillCategories(l *core.Ledger, month, bank string) []string {
	set := map[string]struct{}{}
	for _, day := range monthDays(l, month) {
		for _, e := range l.Days[day] {
			if Touches(e, bank, l.PaymentBankMap) {
				set[e.CategoryOrDefault()] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func monthDays(l *core.Ledger, month string) []core.Day {
	var days []core.Day
	for day := range l.Days {
		if day.Month() == month {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func meta(e core.Entry) string {
	s := string(e.PayMethod)
	if e.PaySubType != "" {
		s += " • " + e.PaySubType
	}
	if e.Transfer != nil {
		s += " • " + e.Transfer.From + "->" + e.Transfer.To
	}
	return s
}
