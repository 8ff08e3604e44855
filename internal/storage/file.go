// Package storage persists the ledger document and the local user record.
// Every backend loads and saves whole documents; none offers partial writes.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

// FileStore keeps the ledger as a pretty-printed JSON file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

func NewFileStore(path string, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &FileStore{path: path, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing or unparseable file is reported as a
// *core.StorageReadError.
func (s *FileStore) Load(_ context.Context) (*core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var l core.Ledger
	if err := readJSON(s.path, &l); err != nil {
		return nil, err
	}
	l.Normalize()
	return &l, nil
}

// Save replaces the document atomically (temp file + rename).
func (s *FileStore) Save(ctx context.Context, l *core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.path, l); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger saved", "path", s.path, log.FieldCount, l.Len())
	return nil
}

// FileUserStore keeps the single user record as a JSON file.
type FileUserStore struct {
	mu   sync.Mutex
	path string
}

func NewFileUserStore(path string) (*FileUserStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileUserStore{path: path}, nil
}

// LoadUser returns nil, nil when no user has been created yet.
func (s *FileUserStore) LoadUser(_ context.Context) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u core.User
	err := readJSON(s.path, &u)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *FileUserStore) SaveUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.path, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &core.StorageReadError{Source: path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &core.StorageReadError{Source: path, Err: errors.New("empty document")}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &core.StorageReadError{Source: path, Err: err}
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
