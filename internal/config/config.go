package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	validBackends = []string{BackendFile, BackendSQLite, BackendMemory}
	validLevels   = []string{"debug", "info", "warn", "warning", "error"}
	validStyles   = []string{"auto", "ascii", "dark", "dracula", "light", "notty", "pink", "tokyo-night"}
)

type Config struct {
	// HTTP Server
	Host string
	Port string

	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string
	UserFile     string

	// Presentation
	LogLevel    string
	PageSize    int
	RenderStyle string
	RenderWidth int

	// POST requests allowed per client per RateWindow
	RateLimit  int
	RateWindow time.Duration
	// Exports written by the backup command land here
	BackupDir string
	// BackupInterval makes serve write backups periodically; zero disables it
	BackupInterval time.Duration
}

func Load() *Config {
	dataDir := getEnv("KHARCHA_DATA_DIR", "./data")
	cfg := &Config{
		Host: getEnv("HOST", "127.0.0.1"),
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("KHARCHA_BACKEND", BackendFile),
		DataFile:     getEnv("KHARCHA_DATA_FILE", filepath.Join(dataDir, "ledger.json")),
		SQLiteDBPath: getEnv("KHARCHA_SQLITE_PATH", filepath.Join(dataDir, "kharcha.db")),
		UserFile:     getEnv("KHARCHA_USER_FILE", filepath.Join(dataDir, "user.json")),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		PageSize:    getEnvInt("KHARCHA_PAGE_SIZE", 20),
		RenderStyle: getEnv("KHARCHA_RENDER_STYLE", "auto"),
		RenderWidth: getEnvInt("KHARCHA_RENDER_WIDTH", 100),

		RateLimit:  getEnvInt("KHARCHA_RATE_LIMIT", 60),
		RateWindow: getEnvDuration("KHARCHA_RATE_WINDOW", time.Minute),
		BackupDir:  getEnv("KHARCHA_BACKUP_DIR", filepath.Join(dataDir, "backups")),

		BackupInterval: getEnvDuration("KHARCHA_BACKUP_INTERVAL", 0),
	}

	return cfg
}

// Addr is the listen address of the local API.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataFile == "" {
			errors = append(errors, "data file path cannot be empty when using file backend")
		} else if err := ensureDir(c.DataFile); err != nil {
			errors = append(errors, err.Error())
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.DataBackend == BackendFile {
		if c.UserFile == "" {
			errors = append(errors, "user file path cannot be empty when using file backend")
		} else if err := ensureDir(c.UserFile); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.PageSize < 1 || c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 500", c.PageSize))
	}

	if !slices.Contains(validStyles, c.RenderStyle) {
		errors = append(errors, fmt.Sprintf("invalid render style '%s': must be one of %v", c.RenderStyle, validStyles))
	}
	if c.RenderWidth < 0 {
		errors = append(errors, fmt.Sprintf("invalid render width %d: must not be negative", c.RenderWidth))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.RateWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate window %v: must be at least 1 second", c.RateWindow))
	} else if c.RateWindow > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate window %v: must be at most 1 hour", c.RateWindow))
	}

	if c.BackupInterval < 0 || (c.BackupInterval > 0 && c.BackupInterval < time.Minute) {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be 0 or at least 1 minute", c.BackupInterval))
	} else if c.BackupInterval > 0 && c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty when a backup interval is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when it is missing.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory '%s': %v", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
