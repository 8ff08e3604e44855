// Package gate guards the ledger behind the single local user's password.
package gate

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

const defaultName = "User"

// UserStore persists the single user record. LoadUser returns nil, nil when
// no user has been created yet.
type UserStore interface {
	LoadUser(ctx context.Context) (*core.User, error)
	SaveUser(ctx context.Context, u *core.User) error
}

type Gate struct {
	store  UserStore
	logger *log.Logger
	cost   int
}

func New(store UserStore, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gate{store: store, logger: logger.WithComponent(log.ComponentGate), cost: bcrypt.DefaultCost}
}

// UserUpdate carries the profile fields saved along with a password change.
type UserUpdate struct {
	Name               string
	SecurityHint       string
	BiometricPreferred bool
}

// Exists reports whether a user has been created.
func (g *Gate) Exists(ctx context.Context) (bool, error) {
	u, err := g.store.LoadUser(ctx)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Create sets up the user. It fails when one already exists.
func (g *Gate) Create(ctx context.Context, name, password, hint string) (*core.User, error) {
	existing, err := g.store.LoadUser(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, core.ErrUserExists
	}
	hash, err := g.hash(password)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}
	u := &core.User{Name: name, Password: hash, SecurityHint: strings.TrimSpace(hint)}
	if err := g.store.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	g.logger.InfoContext(ctx, "User created", "name", u.Name)
	return u, nil
}

// Unlock checks password against the stored user. Records written with a
// plain-text password are accepted once and re-saved hashed.
func (g *Gate) Unlock(ctx context.Context, password string) (*core.User, error) {
	u, err := g.store.LoadUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, core.ErrNoUser
	}
	if !isHash(u.Password) {
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
			g.logFailure(ctx)
			return nil, core.ErrInvalidCredentials
		}
		if u.Password, err = g.hash(password); err != nil {
			return nil, err
		}
		if err := g.store.SaveUser(ctx, u); err != nil {
			return nil, fmt.Errorf("upgrade password hash: %w", err)
		}
		g.logger.InfoContext(ctx, "Legacy password upgraded", log.FieldOperation, log.OpUnlock)
		return u, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		g.logFailure(ctx)
		return nil, core.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one. The
// name is only replaced when upd.Name is set.
func (g *Gate) ChangePassword(ctx context.Context, current, next string, upd UserUpdate) error {
	if strings.TrimSpace(current) == "" || strings.TrimSpace(next) == "" {
		return core.ErrEmptyPassword
	}
	u, err := g.Unlock(ctx, current)
	if err != nil {
		return err
	}
	if u.Password, err = g.hash(next); err != nil {
		return err
	}
	if name := strings.TrimSpace(upd.Name); name != "" {
		u.Name = name
	}
	u.SecurityHint = strings.TrimSpace(upd.SecurityHint)
	u.BiometricPreferred = upd.BiometricPreferred
	if err := g.store.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	g.logger.InfoContext(ctx, "Password changed")
	return nil
}

// Reset sets a new password for a user that forgot theirs. name must match
// the stored name exactly.
func (g *Gate) Reset(ctx context.Context, name, password string) error {
	u, err := g.store.LoadUser(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		return core.ErrNoUser
	}
	if strings.TrimSpace(name) != u.Name {
		g.logger.WarnContext(ctx, "Password reset refused", log.FieldErrorType, log.ErrorTypeAuth)
		return core.ErrNameMismatch
	}
	if u.Password, err = g.hash(password); err != nil {
		return err
	}
	if err := g.store.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	g.logger.InfoContext(ctx, "Password reset")
	return nil
}

// Hint returns the stored security hint, shown before a reset.
func (g *Gate) Hint(ctx context.Context) (string, error) {
	u, err := g.store.LoadUser(ctx)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", core.ErrNoUser
	}
	return u.SecurityHint, nil
}

func (g *Gate) hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", core.ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (g *Gate) logFailure(ctx context.Context) {
	g.logger.WarnContext(ctx, "Unlock failed", log.FieldOperation, log.OpUnlock, log.FieldErrorType, log.ErrorTypeAuth)
}

func isHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
