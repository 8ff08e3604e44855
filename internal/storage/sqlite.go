package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kharcha/internal/core"
	"kharcha/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger document as a single JSON row and the user
// record in its own table.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteStore{db: db, path: dbPath, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*core.Ledger, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ledger_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.StorageReadError{Source: s.path, Err: fmt.Errorf("no ledger document: %w", fs.ErrNotExist)}
	}
	if err != nil {
		return nil, &core.StorageReadError{Source: s.path, Err: err}
	}

	var l core.Ledger
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		return nil, &core.StorageReadError{Source: s.path, Err: err}
	}
	l.Normalize()
	return &l, nil
}

func (s *SQLiteStore) Save(ctx context.Context, l *core.Ledger) error {
	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_document (id, version, body, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		l.Version, string(body))
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	s.logger.DebugContext(ctx, "Ledger saved to SQLite", "path", s.path, log.FieldCount, l.Len())
	return nil
}

// LoadUser returns nil, nil when no user has been created yet.
func (s *SQLiteStore) LoadUser(ctx context.Context) (*core.User, error) {
	var (
		u         core.User
		biometric int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, password_hash, security_hint, biometric_preferred FROM app_user WHERE id = 1`).
		Scan(&u.Name, &u.Password, &u.SecurityHint, &biometric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.BiometricPreferred = biometric != 0
	return &u, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, u *core.User) error {
	biometric := 0
	if u.BiometricPreferred {
		biometric = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_user (id, name, password_hash, security_hint, biometric_preferred, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			password_hash = excluded.password_hash,
			security_hint = excluded.security_hint,
			biometric_preferred = excluded.biometric_preferred,
			updated_at = excluded.updated_at`,
		u.Name, u.Password, u.SecurityHint, biometric)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
