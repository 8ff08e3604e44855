package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/impexp"
	"kharcha/internal/ledger"
	"kharcha/internal/storage"
)

type fakeBackupper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeBackupper) Backup(ctx context.Context, dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []string{filepath.Join(dir, "kharcha-2024-03.json")}, nil
}

func (f *fakeBackupper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestBackupWorker_RunOnce(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		b := &fakeBackupper{}
		w := NewBackupWorker(b, t.TempDir(), time.Hour, nil)
		if err := w.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if runs, failures := w.Stats(); runs != 1 || failures != 0 {
			t.Errorf("Stats() = %d, %d, want 1, 0", runs, failures)
		}
	})

	t.Run("failure is counted", func(t *testing.T) {
		boom := errors.New("disk full")
		w := NewBackupWorker(&fakeBackupper{err: boom}, t.TempDir(), time.Hour, nil)
		if err := w.RunOnce(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("RunOnce error = %v, want %v", err, boom)
		}
		if _, failures := w.Stats(); failures != 1 {
			t.Errorf("failures = %d, want 1", failures)
		}
	})
}

func TestBackupWorker_RunUntilCancelled(t *testing.T) {
	b := &fakeBackupper{}
	w := NewBackupWorker(b, t.TempDir(), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for b.Calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d backups before deadline", b.Calls())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBackupWorker_WritesLedgerMonths(t *testing.T) {
	ctx := context.Background()
	repo := ledger.NewRepository(storage.NewMemoryStore(), nil)
	for _, day := range []core.Day{"2024-02-10", "2024-03-05"} {
		if _, err := repo.Add(ctx, day, ledger.Draft{Description: "Tea", Amount: decimal.NewFromInt(20)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	dir := t.TempDir()
	w := NewBackupWorker(impexp.NewService(repo, nil), dir, time.Hour, nil)
	if err := w.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	for _, month := range []string{"2024-02", "2024-03"} {
		if _, err := os.Stat(filepath.Join(dir, impexp.BackupName(month))); err != nil {
			t.Errorf("backup for %s: %v", month, err)
		}
	}
}
