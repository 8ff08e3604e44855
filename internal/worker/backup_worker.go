// Package worker runs background jobs next to the API server.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"kharcha/internal/log"
)

// Backupper writes one backup file per ledger month into dir.
type Backupper interface {
	Backup(ctx context.Context, dir string) ([]string, error)
}

// BackupWorker writes monthly JSON backups once at startup and then on every
// tick until its context is cancelled.
type BackupWorker struct {
	backups  Backupper
	dir      string
	interval time.Duration
	logger   *log.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

func NewBackupWorker(backups Backupper, dir string, interval time.Duration, logger *log.Logger) *BackupWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &BackupWorker{
		backups:  backups,
		dir:      dir,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is done. A failed backup is logged and retried on the
// next tick.
func (w *BackupWorker) Run(ctx context.Context) {
	w.logger.InfoContext(ctx, "Backup worker started", "interval", w.interval, "dir", w.dir)

	_ = w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Backup worker stopped", "runs", w.runs.Load(), "failures", w.failures.Load())
			return
		case now := <-ticker.C:
			if err := w.RunOnce(ctx); err == nil {
				w.logger.DebugContext(ctx, "Next backup scheduled", "at", now.Add(w.interval).Format("15:04:05"))
			}
		}
	}
}

// RunOnce writes a single round of backups.
func (w *BackupWorker) RunOnce(ctx context.Context) error {
	w.runs.Add(1)
	paths, err := w.backups.Backup(ctx, w.dir)
	if err != nil {
		w.failures.Add(1)
		if ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic backup failed",
				log.FieldOperation, log.OpBackup,
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeStorage)
		}
		return err
	}
	w.logger.InfoContext(ctx, "Periodic backup complete", log.FieldOperation, log.OpBackup, log.FieldCount, len(paths))
	return nil
}

// Stats returns the number of attempted and failed backup rounds.
func (w *BackupWorker) Stats() (runs, failures int64) {
	return w.runs.Load(), w.failures.Load()
}
