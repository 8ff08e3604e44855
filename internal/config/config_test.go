package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(dir string) Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         "8081",
		DataBackend:  BackendFile,
		DataFile:     filepath.Join(dir, "ledger.json"),
		SQLiteDBPath: filepath.Join(dir, "kharcha.db"),
		UserFile:     filepath.Join(dir, "user.json"),
		LogLevel:     "info",
		PageSize:     20,
		RenderStyle:  "auto",
		RenderWidth:  100,
		RateLimit:    60,
		RateWindow:   time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid file backend config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid sqlite backend config",
			mutate: func(c *Config) { c.DataBackend = BackendSQLite },
		},
		{
			name:   "sqlite backend keeps users in the database",
			mutate: func(c *Config) { c.DataBackend = BackendSQLite; c.UserFile = "" },
		},
		{
			name:   "memory backend needs no paths",
			mutate: func(c *Config) { c.DataBackend = BackendMemory; c.DataFile = ""; c.UserFile = "" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets': must be one of [file sqlite memory]",
		},
		{
			name:        "file backend missing data file",
			mutate:      func(c *Config) { c.DataFile = "" },
			wantErr:     true,
			errorString: "data file path cannot be empty when using file backend",
		},
		{
			name:        "sqlite backend missing database path",
			mutate:      func(c *Config) { c.DataBackend = BackendSQLite; c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "file backend missing user file",
			mutate:      func(c *Config) { c.UserFile = "" },
			wantErr:     true,
			errorString: "user file path cannot be empty when using file backend",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "invalid page size",
			mutate:      func(c *Config) { c.PageSize = 0 },
			wantErr:     true,
			errorString: "invalid page size 0: must be between 1 and 500",
		},
		{
			name:        "invalid render style",
			mutate:      func(c *Config) { c.RenderStyle = "neon" },
			wantErr:     true,
			errorString: "invalid render style 'neon'",
		},
		{
			name:        "invalid rate limit",
			mutate:      func(c *Config) { c.RateLimit = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0: must be at least 1",
		},
		{
			name:        "invalid rate window - too short",
			mutate:      func(c *Config) { c.RateWindow = 500 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid rate window 500ms: must be at least 1 second",
		},
		{
			name:        "invalid rate window - too long",
			mutate:      func(c *Config) { c.RateWindow = 2 * time.Hour },
			wantErr:     true,
			errorString: "invalid rate window 2h0m0s: must be at most 1 hour",
		},
		{
			name:   "hourly backups",
			mutate: func(c *Config) { c.BackupDir = dir; c.BackupInterval = time.Hour },
		},
		{
			name:        "backup interval too short",
			mutate:      func(c *Config) { c.BackupDir = dir; c.BackupInterval = 10 * time.Second },
			wantErr:     true,
			errorString: "invalid backup interval 10s: must be 0 or at least 1 minute",
		},
		{
			name:        "backup interval without directory",
			mutate:      func(c *Config) { c.BackupDir = ""; c.BackupInterval = time.Hour },
			wantErr:     true,
			errorString: "backup directory cannot be empty when a backup interval is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(dir)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig(t.TempDir())
	cfg.Port = "abc"
	cfg.PageSize = 0
	cfg.RateLimit = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if n := strings.Count(msg, "\n- "); n != 3 {
		t.Errorf("expected 3 problems, got %d in %q", n, msg)
	}
}

func TestConfig_ValidateCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := validConfig(dir)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("data directory not created: %v", err)
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{
		"HOST", "PORT", "KHARCHA_DATA_DIR", "KHARCHA_BACKEND", "KHARCHA_DATA_FILE",
		"KHARCHA_SQLITE_PATH", "KHARCHA_USER_FILE", "LOG_LEVEL", "KHARCHA_PAGE_SIZE",
		"KHARCHA_RENDER_STYLE", "KHARCHA_RATE_LIMIT", "KHARCHA_RATE_WINDOW",
	} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Addr() != "127.0.0.1:8081" {
			t.Errorf("Load() Addr = %v, want 127.0.0.1:8081", cfg.Addr())
		}
		if cfg.DataBackend != BackendFile {
			t.Errorf("Load() DataBackend = %v, want file", cfg.DataBackend)
		}
		if cfg.DataFile != filepath.Join("data", "ledger.json") {
			t.Errorf("Load() DataFile = %v", cfg.DataFile)
		}
		if cfg.PageSize != 20 {
			t.Errorf("Load() PageSize = %v, want 20", cfg.PageSize)
		}
		if cfg.RateWindow != time.Minute {
			t.Errorf("Load() RateWindow = %v, want 1m", cfg.RateWindow)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("KHARCHA_BACKEND", "sqlite")
		t.Setenv("KHARCHA_DATA_DIR", "/tmp/kharcha")
		t.Setenv("KHARCHA_PAGE_SIZE", "50")
		t.Setenv("KHARCHA_RATE_WINDOW", "30s")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != BackendSQLite {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "/tmp/kharcha/kharcha.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/kharcha/kharcha.db", cfg.SQLiteDBPath)
		}
		if cfg.PageSize != 50 {
			t.Errorf("Load() PageSize = %v, want 50", cfg.PageSize)
		}
		if cfg.RateWindow != 30*time.Second {
			t.Errorf("Load() RateWindow = %v, want 30s", cfg.RateWindow)
		}
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("KHARCHA_PAGE_SIZE", "many")
		t.Setenv("KHARCHA_RATE_WINDOW", "soon")

		cfg := Load()

		if cfg.PageSize != 20 {
			t.Errorf("Load() PageSize = %v, want 20", cfg.PageSize)
		}
		if cfg.RateWindow != time.Minute {
			t.Errorf("Load() RateWindow = %v, want 1m", cfg.RateWindow)
		}
	})
}
