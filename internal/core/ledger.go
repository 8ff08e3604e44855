package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrentVersion is the document version written by this package.
const CurrentVersion = 1

type (
	// Ledger is the whole persisted document. It is always loaded and saved
	// as one unit.
	Ledger struct {
		Version        int                                   `json:"version"`
		Days           map[Day][]Entry                       `json:"days"`
		Settings       Settings                              `json:"settings"`
		Accounts       map[string]map[string]decimal.Decimal `json:"accounts"`
		PaymentBankMap map[string]*string                    `json:"paymentBankMap"`
		Custom         Customization                         `json:"custom"`
	}

	Settings struct {
		Categories []string `json:"categories"`
		UpiApps    []string `json:"upiApps"`
		Cards      []string `json:"cards"`
		Banks      []string `json:"banks"`
	}

	Customization struct {
		Currency string `json:"currency"`
		Accent   string `json:"accent"`
	}

	// User is the single local account guarding the ledger. Password holds a
	// bcrypt hash.
	User struct {
		Name               string `json:"name"`
		Password           string `json:"password"`
		SecurityHint       string `json:"securityHint"`
		BiometricPreferred bool   `json:"biometricPreferred"`
	}
)

// DefaultSettings returns the settings a fresh ledger starts with.
func DefaultSettings() Settings {
	return Settings{
		Categories: []string{"Food", "Travel", "Bills", "Shopping", "Salary", "Other"},
		UpiApps:    []string{"GPay", "PhonePe", "Paytm"},
		Cards:      []string{"Canara", "HDFC", "SBI", "Credit Card"},
		Banks:      []string{"Canara", "HDFC", "SBI"},
	}
}

func DefaultCustomization() Customization {
	return Customization{Currency: "₹", Accent: "#2563eb"}
}

// NewLedger returns an empty document with default settings.
func NewLedger() *Ledger {
	return &Ledger{
		Version:        CurrentVersion,
		Days:           make(map[Day][]Entry),
		Settings:       DefaultSettings(),
		Accounts:       make(map[string]map[string]decimal.Decimal),
		PaymentBankMap: make(map[string]*string),
		Custom:         DefaultCustomization(),
	}
}

// Normalize fills missing maps and settings so readers never meet nil.
func (l *Ledger) Normalize() {
	if l.Version == 0 {
		l.Version = CurrentVersion
	}
	if l.Days == nil {
		l.Days = make(map[Day][]Entry)
	}
	if l.Accounts == nil {
		l.Accounts = make(map[string]map[string]decimal.Decimal)
	}
	if l.PaymentBankMap == nil {
		l.PaymentBankMap = make(map[string]*string)
	}
	def := DefaultSettings()
	if l.Settings.Categories == nil {
		l.Settings.Categories = def.Categories
	}
	if l.Settings.UpiApps == nil {
		l.Settings.UpiApps = def.UpiApps
	}
	if l.Settings.Cards == nil {
		l.Settings.Cards = def.Cards
	}
	if l.Settings.Banks == nil {
		l.Settings.Banks = def.Banks
	}
	if l.Custom.Currency == "" {
		l.Custom.Currency = DefaultCustomization().Currency
	}
	if l.Custom.Accent == "" {
		l.Custom.Accent = DefaultCustomization().Accent
	}
}

// Clone returns a deep copy of the document.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		Version:        l.Version,
		Days:           make(map[Day][]Entry, len(l.Days)),
		Accounts:       make(map[string]map[string]decimal.Decimal, len(l.Accounts)),
		PaymentBankMap: make(map[string]*string, len(l.PaymentBankMap)),
		Custom:         l.Custom,
		Settings: Settings{
			Categories: append([]string(nil), l.Settings.Categories...),
			UpiApps:    append([]string(nil), l.Settings.UpiApps...),
			Cards:      append([]string(nil), l.Settings.Cards...),
			Banks:      append([]string(nil), l.Settings.Banks...),
		},
	}
	for day, entries := range l.Days {
		bucket := make([]Entry, len(entries))
		for i, e := range entries {
			bucket[i] = e.Clone()
		}
		c.Days[day] = bucket
	}
	for month, banks := range l.Accounts {
		m := make(map[string]decimal.Decimal, len(banks))
		for bank, amount := range banks {
			m[bank] = amount
		}
		c.Accounts[month] = m
	}
	for key, bank := range l.PaymentBankMap {
		if bank == nil {
			c.PaymentBankMap[key] = nil
			continue
		}
		b := *bank
		c.PaymentBankMap[key] = &b
	}
	return c
}

// MappingKey returns the payment→bank mapping key for an instrument, or ""
// when the method has no mapping.
func MappingKey(method PayMethod, subType string) string {
	if subType == "" {
		return ""
	}
	switch method {
	case UPI:
		return "upi:" + subType
	case Card:
		return "card:" + subType
	}
	return ""
}

// MappedBank looks up the bank an instrument is mapped to.
func (l *Ledger) MappedBank(method PayMethod, subType string) (string, bool) {
	key := MappingKey(method, subType)
	if key == "" {
		return "", false
	}
	bank, ok := l.PaymentBankMap[key]
	if !ok || bank == nil || strings.TrimSpace(*bank) == "" {
		return "", false
	}
	return *bank, true
}

// InitialBalance returns the stored opening balance of bank for month.
func (l *Ledger) InitialBalance(month, bank string) (decimal.Decimal, bool) {
	banks, ok := l.Accounts[month]
	if !ok {
		return decimal.Zero, false
	}
	amount, ok := banks[bank]
	return amount, ok
}

// Find returns the index of the entry with id in the day bucket, or -1.
func (l *Ledger) Find(day Day, id EntryID) int {
	for i, e := range l.Days[day] {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Len counts all entries in the document.
func (l *Ledger) Len() int {
	n := 0
	for _, entries := range l.Days {
		n += len(entries)
	}
	return n
}
