// Package accounts derives per-bank balances for a month from the stored
// opening balances, the transfers and every payment attributable to a bank.
package accounts

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// BankBalance is one line of the month overview.
type BankBalance struct {
	Bank    string          `json:"bank"`
	Initial decimal.Decimal `json:"initial"`
	Balance decimal.Decimal `json:"balance"`
	// Listed is false for banks that only appear in stored balances or
	// entries but were removed from the settings list.
	Listed bool `json:"listed"`
}

// ResolveBank attributes a non-transfer entry to a bank: the entry's own
// mapped bank snapshot first, then a Bank or Card sub-type taken as the bank
// name, then the payment mapping table.
func ResolveBank(e core.Entry, mapping map[string]*string) (string, bool) {
	if e.Type == core.Transfer {
		return "", false
	}
	if b := strings.TrimSpace(e.MappedBank); b != "" {
		return b, true
	}
	if e.PaySubType != "" && (e.PayMethod == core.Bank || e.PayMethod == core.Card) {
		return e.PaySubType, true
	}
	key := core.MappingKey(e.PayMethod, e.PaySubType)
	if key == "" {
		return "", false
	}
	if b, ok := mapping[key]; ok && b != nil && strings.TrimSpace(*b) != "" {
		return *b, true
	}
	return "", false
}

// Touches reports whether e moves money in or out of bank.
func Touches(e core.Entry, bank string, mapping map[string]*string) bool {
	if e.Type == core.Transfer {
		return e.Transfer != nil && (e.Transfer.From == bank || e.Transfer.To == bank)
	}
	b, ok := ResolveBank(e, mapping)
	return ok && b == bank
}

// Balances returns the end-of-month balance of every bank with a stored
// opening balance or touched by an entry of month. The result does not
// depend on the order entries are visited in.
func Balances(l *core.Ledger, month string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for bank, amount := range l.Accounts[month] {
		out[bank] = amount
	}
	for day, entries := range l.Days {
		if day.Month() != month {
			continue
		}
		for _, e := range entries {
			apply(out, e, l.PaymentBankMap)
		}
	}
	return out
}

func apply(balances map[string]decimal.Decimal, e core.Entry, mapping map[string]*string) {
	if e.Type == core.Transfer {
		if e.Transfer == nil {
			return
		}
		if e.Transfer.From != "" {
			balances[e.Transfer.From] = balances[e.Transfer.From].Sub(e.Amount)
		}
		if e.Transfer.To != "" {
			balances[e.Transfer.To] = balances[e.Transfer.To].Add(e.Amount)
		}
		return
	}
	bank, ok := ResolveBank(e, mapping)
	if !ok {
		return
	}
	if e.Type == core.Income {
		balances[bank] = balances[bank].Add(e.Amount)
	} else {
		balances[bank] = balances[bank].Sub(e.Amount)
	}
}

// Overview lists the configured banks in settings order, followed by any
// other bank that has a balance for month, sorted by name.
func Overview(l *core.Ledger, month string) []BankBalance {
	balances := Balances(l, month)
	out := make([]BankBalance, 0, len(balances))
	seen := make(map[string]struct{})
	row := func(bank string, listed bool) BankBalance {
		initial, _ := l.InitialBalance(month, bank)
		return BankBalance{Bank: bank, Initial: initial, Balance: balances[bank], Listed: listed}
	}
	for _, bank := range l.Settings.Banks {
		if _, dup := seen[bank]; dup {
			continue
		}
		seen[bank] = struct{}{}
		out = append(out, row(bank, true))
	}
	var extra []string
	for bank := range balances {
		if _, ok := seen[bank]; !ok {
			extra = append(extra, bank)
		}
	}
	sort.Strings(extra)
	for _, bank := range extra {
		out = append(out, row(bank, false))
	}
	return out
}
