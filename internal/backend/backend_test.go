package backend

import (
	"context"
	"path/filepath"
	"testing"

	"kharcha/internal/config"
	"kharcha/internal/core"
	"kharcha/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend: "file",
		DataFile:    "/var/lib/kharcha/ledger.json",
		UserFile:    "/var/lib/kharcha/user.json",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != FileBackend || cfg.DataDirectory != "/var/lib/kharcha" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "file", config: Config{Type: FileBackend, DataFile: "l.json", UserFile: "u.json"}},
		{name: "file without user file", config: Config{Type: FileBackend, DataFile: "l.json"}, wantErr: true},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: "k.db"}},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "unknown", config: Config{Type: "sheets"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{name: "file", config: Config{Type: FileBackend, DataFile: filepath.Join(dir, "f", "ledger.json"), UserFile: filepath.Join(dir, "f", "user.json")}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "s", "kharcha.db")}},
		{name: "memory", config: Config{Type: MemoryBackend, DataDirectory: filepath.Join(dir, "m")}},
	}

	factory := NewFactory(log.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := factory.CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()

			doc := core.NewLedger()
			doc.Settings.Banks = []string{"Axis"}
			if err := res.Ledger.Save(ctx, doc); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := res.Ledger.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got.Settings.Banks) != 1 || got.Settings.Banks[0] != "Axis" {
				t.Fatalf("banks = %v", got.Settings.Banks)
			}

			if u, err := res.Users.LoadUser(ctx); err != nil || u != nil {
				t.Fatalf("LoadUser() = %v, %v; want nil, nil", u, err)
			}
			if err := res.Users.SaveUser(ctx, &core.User{Name: "Asha", Password: "x"}); err != nil {
				t.Fatalf("SaveUser: %v", err)
			}
			if u, err := res.Users.LoadUser(ctx); err != nil || u == nil || u.Name != "Asha" {
				t.Fatalf("LoadUser() = %v, %v", u, err)
			}
		})
	}
}
