package gate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

func newGate(t *testing.T) (*Gate, UserStore) {
	t.Helper()
	store, err := storage.NewFileUserStore(filepath.Join(t.TempDir(), "user.json"))
	if err != nil {
		t.Fatalf("user store: %v", err)
	}
	g := New(store, log.Discard())
	g.cost = bcrypt.MinCost
	return g, store
}

func TestCreateAndUnlock(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)

	if ok, err := g.Exists(ctx); err != nil || ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}
	if _, err := g.Unlock(ctx, "x"); !errors.Is(err, core.ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}

	u, err := g.Create(ctx, "  ", "s3cret", "pet name")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Name != "User" {
		t.Fatalf("blank name must default, got %q", u.Name)
	}
	saved, _ := store.LoadUser(ctx)
	if saved.Password == "s3cret" || !strings.HasPrefix(saved.Password, "$2") {
		t.Fatalf("password must be stored hashed, got %q", saved.Password)
	}

	if _, err := g.Create(ctx, "Other", "pw", ""); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := g.Unlock(ctx, "wrong"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := g.Unlock(ctx, "s3cret"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if hint, err := g.Hint(ctx); err != nil || hint != "pet name" {
		t.Fatalf("Hint() = %q, %v", hint, err)
	}
}

func TestCreateRejectsEmptyPassword(t *testing.T) {
	g, _ := newGate(t)
	if _, err := g.Create(context.Background(), "Asha", "   ", ""); !errors.Is(err, core.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)
	if _, err := g.Create(ctx, "Asha", "old", "hint"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{name: "empty new", current: "old", next: "", wantErr: core.ErrEmptyPassword},
		{name: "wrong current", current: "nope", next: "new", wantErr: core.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.ChangePassword(ctx, tt.current, tt.next, UserUpdate{}); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := g.ChangePassword(ctx, "old", "new", UserUpdate{SecurityHint: "city", BiometricPreferred: true}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	u, _ := store.LoadUser(ctx)
	if u.Name != "Asha" || u.SecurityHint != "city" || !u.BiometricPreferred {
		t.Fatalf("profile not updated: %+v", u)
	}
	if _, err := g.Unlock(ctx, "old"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := g.Unlock(ctx, "new"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate(t)
	if err := g.Reset(ctx, "Asha", "x"); !errors.Is(err, core.ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
	if _, err := g.Create(ctx, "Asha", "old", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := g.Reset(ctx, "asha", "new"); !errors.Is(err, core.ErrNameMismatch) {
		t.Fatalf("name match must be exact, got %v", err)
	}
	if err := g.Reset(ctx, " Asha ", "new"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := g.Unlock(ctx, "new"); err != nil {
		t.Fatalf("Unlock after reset: %v", err)
	}
}

func TestLegacyPlainTextPasswordIsUpgraded(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)
	if err := store.SaveUser(ctx, &core.User{Name: "Asha", Password: "1234"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := g.Unlock(ctx, "12345"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := g.Unlock(ctx, "1234"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	u, _ := store.LoadUser(ctx)
	if !isHash(u.Password) {
		t.Fatalf("password must be re-saved hashed, got %q", u.Password)
	}
	if _, err := g.Unlock(ctx, "1234"); err != nil {
		t.Fatalf("Unlock with hashed record: %v", err)
	}
}
