package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

type documentStore interface {
	Load(context.Context) (*core.Ledger, error)
	Save(context.Context, *core.Ledger) error
	LoadUser(context.Context) (*core.User, error)
	SaveUser(context.Context, *core.User) error
}

func sampleLedger() *core.Ledger {
	l := core.NewLedger()
	l.Days["2025-01-05"] = []core.Entry{{
		ID:          "01",
		Type:        core.Expense,
		Description: "Lunch",
		Category:    "Food",
		PayMethod:   core.UPI,
		PaySubType:  "GPay",
		Amount:      decimal.RequireFromString("100.50"),
	}}
	l.Accounts["2025-01"] = map[string]decimal.Decimal{"HDFC": decimal.NewFromInt(1000)}
	bank := "HDFC"
	l.PaymentBankMap["upi:GPay"] = &bank
	return l
}

func exerciseStore(t *testing.T, s documentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Load(ctx)
		var rerr *core.StorageReadError
		if !errors.As(err, &rerr) || !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected missing StorageReadError, got %v", err)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		if err := s.Save(ctx, sampleLedger()); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		entries := got.Days["2025-01-05"]
		if len(entries) != 1 || entries[0].Description != "Lunch" {
			t.Fatalf("unexpected entries: %+v", entries)
		}
		if !entries[0].Amount.Equal(decimal.RequireFromString("100.5")) {
			t.Fatalf("unexpected amount: %s", entries[0].Amount)
		}
		if b, ok := got.MappedBank(core.UPI, "GPay"); !ok || b != "HDFC" {
			t.Fatalf("mapping lost: %q %v", b, ok)
		}
		if init, ok := got.InitialBalance("2025-01", "HDFC"); !ok || !init.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("initial balance lost: %s %v", init, ok)
		}
	})

	t.Run("user record", func(t *testing.T) {
		u, err := s.LoadUser(ctx)
		if err != nil || u != nil {
			t.Fatalf("expected no user, got %+v (err=%v)", u, err)
		}
		want := core.User{Name: "Asha", Password: "hash", SecurityHint: "pet", BiometricPreferred: true}
		if err := s.SaveUser(ctx, &want); err != nil {
			t.Fatalf("save user: %v", err)
		}
		u, err = s.LoadUser(ctx)
		if err != nil || u == nil || *u != want {
			t.Fatalf("unexpected user %+v (err=%v)", u, err)
		}
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewFileStore(filepath.Join(dir, "data", "ledger.json"), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	us, err := NewFileUserStore(filepath.Join(dir, "data", "user.json"))
	if err != nil {
		t.Fatalf("new user store: %v", err)
	}
	exerciseStore(t, struct {
		*FileStore
		*FileUserStore
	}{ls, us})
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, _ := NewFileStore(path, nil)
	_, err := s.Load(context.Background())
	var rerr *core.StorageReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected StorageReadError, got %v", err)
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("corrupt file must not look missing")
	}
}

func TestFileStoreLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	s, err := NewFileStore(filepath.Join(t.TempDir(), "ledger.json"), logger)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Save(context.Background(), sampleLedger()); err != nil {
		t.Fatalf("save: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Ledger saved") || !strings.Contains(out, "component=storage") {
		t.Fatalf("save not logged through the storage logger: %q", out)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kharcha.db"), nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestMigrateSchemaIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kharcha.db")
	for i := 0; i < 2; i++ {
		v, err := migrateSchema(path)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if v != SchemaVersion {
			t.Errorf("run %d: version = %d, want %d", i, v, SchemaVersion)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := sampleLedger()
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.Days["2025-01-05"][0].Description = "changed"

	got, _ := s.Load(ctx)
	if got.Days["2025-01-05"][0].Description != "Lunch" {
		t.Fatalf("store shares memory with caller")
	}
}

func TestNewMemoryStoreFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewMemoryStoreFromFiles(dir)
	l, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l.Settings.Banks) != 3 {
		t.Fatalf("expected default banks, got %v", l.Settings.Banks)
	}

	if err := os.WriteFile(filepath.Join(dir, "banks.txt"), []byte("# header\nAxis\nICICI\nAxis\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s = NewMemoryStoreFromFiles(dir)
	l, _ = s.Load(context.Background())
	if len(l.Settings.Banks) != 2 || l.Settings.Banks[0] != "Axis" || l.Settings.Banks[1] != "ICICI" {
		t.Fatalf("unexpected banks: %v", l.Settings.Banks)
	}
	if len(l.Settings.Categories) != 6 {
		t.Fatalf("categories must keep defaults, got %v", l.Settings.Categories)
	}
}
