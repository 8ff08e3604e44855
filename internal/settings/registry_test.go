package settings

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"kharcha/internal/accounts"
	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

func newRegistry(t *testing.T) (*Registry, *ledger.Repository) {
	t.Helper()
	repo := ledger.NewRepository(storage.NewMemoryStore(), log.Discard())
	return NewRegistry(repo, log.Discard()), repo
}

func TestAddAndRemove(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	steps := []struct {
		name  string
		add   bool
		list  core.ListName
		value string
		want  []string
	}{
		{name: "append", add: true, list: core.Banks, value: " ICICI ", want: []string{"Canara", "HDFC", "SBI", "ICICI"}},
		{name: "duplicate ignored", add: true, list: core.Banks, value: "ICICI", want: []string{"Canara", "HDFC", "SBI", "ICICI"}},
		{name: "case sensitive", add: true, list: core.Banks, value: "icici", want: []string{"Canara", "HDFC", "SBI", "ICICI", "icici"}},
		{name: "blank ignored", add: true, list: core.Banks, value: "  ", want: []string{"Canara", "HDFC", "SBI", "ICICI", "icici"}},
		{name: "remove", list: core.Banks, value: "HDFC", want: []string{"Canara", "SBI", "ICICI", "icici"}},
		{name: "remove missing", list: core.Banks, value: "HDFC", want: []string{"Canara", "SBI", "ICICI", "icici"}},
	}
	for _, st := range steps {
		var err error
		if st.add {
			err = reg.Add(ctx, st.list, st.value)
		} else {
			err = reg.Remove(ctx, st.list, st.value)
		}
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		v, _ := reg.Get(ctx)
		if !reflect.DeepEqual(v.Settings.Banks, st.want) {
			t.Fatalf("%s: banks = %v, want %v", st.name, v.Settings.Banks, st.want)
		}
	}

	if err := reg.Add(ctx, "wallets", "x"); !errors.Is(err, core.ErrUnknownList) {
		t.Fatalf("expected ErrUnknownList, got %v", err)
	}
}

func TestRemovingInstrumentDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	reg, repo := newRegistry(t)

	hdfc := "HDFC"
	if err := reg.SetMapping(ctx, core.UPI, "GPay", &hdfc); err != nil {
		t.Fatalf("map: %v", err)
	}
	e, err := repo.Add(ctx, "2025-01-05", ledger.Draft{Description: "Fuel", Amount: decimal.NewFromInt(500), PayMethod: core.UPI, PaySubType: "GPay"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.Remove(ctx, core.UpiApps, "GPay"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := reg.Remove(ctx, core.Banks, "HDFC"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	doc, _ := repo.Snapshot(ctx)
	if got := doc.Days["2025-01-05"][0]; got.ID != e.ID || got.PaySubType != "GPay" || got.MappedBank != "HDFC" {
		t.Fatalf("entry changed: %+v", got)
	}
	if b := doc.PaymentBankMap["upi:GPay"]; b == nil || *b != "HDFC" {
		t.Fatalf("mapping changed: %v", b)
	}
	if bal := accounts.Balances(doc, "2025-01")["HDFC"]; !bal.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("balance still resolves to the removed bank, got %s", bal)
	}
}

func TestSetMapping(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	sbi := "SBI"
	blank := " "

	tests := []struct {
		name    string
		method  core.PayMethod
		subType string
		bank    *string
		key     string
		want    *string
		wantErr error
	}{
		{name: "card", method: core.Card, subType: "Amex", bank: &sbi, key: "card:Amex", want: &sbi},
		{name: "clear with nil", method: core.Card, subType: "Amex", bank: nil, key: "card:Amex"},
		{name: "clear with blank", method: core.UPI, subType: "Paytm", bank: &blank, key: "upi:Paytm"},
		{name: "cash has no mapping", method: core.Cash, subType: "x", wantErr: core.ErrInvalidPayMethod},
		{name: "missing sub-type", method: core.UPI, subType: " ", wantErr: core.ErrEmptyInstrument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.SetMapping(ctx, tt.method, tt.subType, tt.bank)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetMapping: %v", err)
			}
			v, _ := reg.Get(ctx)
			got, ok := v.PaymentBankMap[tt.key]
			if !ok {
				t.Fatalf("key %s not stored", tt.key)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Fatalf("mapping %s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetInitialBalance(t *testing.T) {
	ctx := context.Background()
	reg, repo := newRegistry(t)

	if err := reg.SetInitialBalance(ctx, "2025-02", "HDFC", decimal.RequireFromString("1000.456")); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, _ := repo.Snapshot(ctx)
	if v, ok := doc.InitialBalance("2025-02", "HDFC"); !ok || !v.Equal(decimal.RequireFromString("1000.46")) {
		t.Fatalf("initial = %s (%v)", v, ok)
	}

	if err := reg.SetInitialBalance(ctx, "2025-2", "HDFC", decimal.Zero); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := reg.SetInitialBalance(ctx, "2025-02", "", decimal.Zero); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCustomizationAndReset(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	if err := reg.SetCategories(ctx, []string{" Rent", "Food", "Rent", ""}); err != nil {
		t.Fatalf("categories: %v", err)
	}
	if err := reg.SetCustomization(ctx, core.Customization{Currency: "$"}); err != nil {
		t.Fatalf("customization: %v", err)
	}
	if err := reg.Add(ctx, core.Cards, "Amex"); err != nil {
		t.Fatalf("add: %v", err)
	}

	v, _ := reg.Get(ctx)
	if !reflect.DeepEqual(v.Settings.Categories, []string{"Rent", "Food"}) {
		t.Fatalf("categories = %v", v.Settings.Categories)
	}
	if v.Custom.Currency != "$" || v.Custom.Accent != core.DefaultCustomization().Accent {
		t.Fatalf("customization = %+v", v.Custom)
	}

	if err := reg.SetCategories(ctx, nil); err != nil {
		t.Fatalf("categories: %v", err)
	}
	v, _ = reg.Get(ctx)
	if !reflect.DeepEqual(v.Settings.Categories, core.DefaultSettings().Categories) {
		t.Fatalf("empty list must restore defaults, got %v", v.Settings.Categories)
	}

	if err := reg.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v, _ = reg.Get(ctx)
	if !reflect.DeepEqual(v.Settings, core.DefaultSettings()) || v.Custom != core.DefaultCustomization() {
		t.Fatalf("reset left %+v %+v", v.Settings, v.Custom)
	}
}
