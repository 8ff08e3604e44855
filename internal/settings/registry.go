// Package settings manages the category and payment instrument lists, the
// payment to bank mapping, opening balances and display customization.
// Removing a value never touches entries or mappings that still name it.
package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

// Mutator is the read-modify-write primitive of the ledger repository.
type Mutator interface {
	Mutate(ctx context.Context, fn func(*core.Ledger) error) error
	Snapshot(ctx context.Context) (*core.Ledger, error)
}

var errNoChange = errors.New("no change")

type Registry struct {
	repo   Mutator
	logger *log.Logger
}

func NewRegistry(repo Mutator, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Discard()
	}
	return &Registry{repo: repo, logger: logger.WithComponent(log.ComponentSettings)}
}

// View is the settings part of the document.
type View struct {
	Settings       core.Settings      `json:"settings"`
	PaymentBankMap map[string]*string `json:"paymentBankMap"`
	Custom         core.Customization `json:"custom"`
}

func (r *Registry) Get(ctx context.Context) (View, error) {
	doc, err := r.repo.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Settings: doc.Settings, PaymentBankMap: doc.PaymentBankMap, Custom: doc.Custom}, nil
}

// Add appends value to list unless an exact match exists. Blank values are
// ignored.
func (r *Registry) Add(ctx context.Context, list core.ListName, value string) error {
	if !list.IsValid() {
		return core.Invalid("list", core.ErrUnknownList)
	}
	return r.mutateList(ctx, list, func(l []string) ([]string, bool) {
		return core.AddUnique(l, value)
	}, "Setting added", strings.TrimSpace(value))
}

// Remove deletes the first exact match of value from list.
func (r *Registry) Remove(ctx context.Context, list core.ListName, value string) error {
	if !list.IsValid() {
		return core.Invalid("list", core.ErrUnknownList)
	}
	return r.mutateList(ctx, list, func(l []string) ([]string, bool) {
		return core.RemoveFirst(l, value)
	}, "Setting removed", value)
}

func (r *Registry) mutateList(ctx context.Context, list core.ListName, fn func([]string) ([]string, bool), msg, value string) error {
	changed := false
	err := r.repo.Mutate(ctx, func(l *core.Ledger) error {
		p := l.Settings.List(list)
		*p, changed = fn(*p)
		if !changed {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err == nil {
		r.logger.InfoContext(ctx, msg, log.FieldSettingList, list, "value", value)
	}
	return err
}

// SetMapping points a UPI app or card at bank. A nil or blank bank stores an
// explicit null, which leaves the instrument unmapped.
func (r *Registry) SetMapping(ctx context.Context, method core.PayMethod, subType string, bank *string) error {
	key := core.MappingKey(method, strings.TrimSpace(subType))
	if key == "" {
		if method == core.UPI || method == core.Card {
			return core.Invalid("paySubType", core.ErrEmptyInstrument)
		}
		return core.Invalid("payMethod", core.ErrInvalidPayMethod)
	}
	var value *string
	name := ""
	if bank != nil {
		if name = strings.TrimSpace(*bank); name != "" {
			value = &name
		}
	}
	err := r.repo.Mutate(ctx, func(l *core.Ledger) error {
		l.PaymentBankMap[key] = value
		return nil
	})
	if err == nil {
		r.logger.InfoContext(ctx, "Payment mapping saved", "key", key, log.FieldBank, name)
	}
	return err
}

// SetInitialBalance stores the opening balance of bank for month.
func (r *Registry) SetInitialBalance(ctx context.Context, month, bank string, amount decimal.Decimal) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return core.Invalid("month", err)
	}
	bank = strings.TrimSpace(bank)
	if bank == "" {
		return core.Invalid("bank", core.ErrEmptyInstrument)
	}
	return r.repo.Mutate(ctx, func(l *core.Ledger) error {
		if l.Accounts[m] == nil {
			l.Accounts[m] = make(map[string]decimal.Decimal)
		}
		l.Accounts[m][bank] = core.Round2(amount)
		return nil
	})
}

// SetCategories replaces the category list. An empty list restores the
// defaults.
func (r *Registry) SetCategories(ctx context.Context, categories []string) error {
	var cats []string
	for _, c := range categories {
		cats, _ = core.AddUnique(cats, c)
	}
	if len(cats) == 0 {
		cats = core.DefaultSettings().Categories
	}
	return r.repo.Mutate(ctx, func(l *core.Ledger) error {
		l.Settings.Categories = cats
		return nil
	})
}

// SetCustomization updates the currency symbol and accent color. Blank
// fields keep their current value.
func (r *Registry) SetCustomization(ctx context.Context, c core.Customization) error {
	return r.repo.Mutate(ctx, func(l *core.Ledger) error {
		if v := strings.TrimSpace(c.Currency); v != "" {
			l.Custom.Currency = v
		}
		if v := strings.TrimSpace(c.Accent); v != "" {
			l.Custom.Accent = v
		}
		return nil
	})
}

// Reset restores default lists and customization. Entries, balances and
// mappings are kept.
func (r *Registry) Reset(ctx context.Context) error {
	err := r.repo.Mutate(ctx, func(l *core.Ledger) error {
		l.Settings = core.DefaultSettings()
		l.Custom = core.DefaultCustomization()
		return nil
	})
	if err == nil {
		r.logger.InfoContext(ctx, "Settings reset to defaults")
	}
	return err
}
