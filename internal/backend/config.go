package backend

import (
	"errors"
	"fmt"
	"path/filepath"

	"kharcha/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
// The memory backend reads its seed lists from the directory that holds the
// ledger file.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	kind := BackendType(app.DataBackend)
	if !kind.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", app.DataBackend)
	}

	cfg := Config{
		Type:          kind,
		DataFile:      app.DataFile,
		UserFile:      app.UserFile,
		SQLiteDBPath:  app.SQLiteDBPath,
		DataDirectory: "data",
	}
	if app.DataFile != "" {
		cfg.DataDirectory = filepath.Dir(app.DataFile)
	}
	return cfg, nil
}

type requirement struct{ value, what string }

// Validate reports the first path the selected backend needs but lacks.
func (c Config) Validate() error {
	var required []requirement
	switch c.Type {
	case FileBackend:
		required = []requirement{{c.DataFile, "data file path"}, {c.UserFile, "user file path"}}
	case SQLiteBackend:
		required = []requirement{{c.SQLiteDBPath, "SQLite database path"}}
	case MemoryBackend:
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required for %s backend", r.what, c.Type)
		}
	}
	return nil
}
