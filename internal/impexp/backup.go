package impexp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
)

// backupWorkers bounds the number of month files written at once.
const backupWorkers = 4

// Months lists the distinct months that have entries, oldest first.
func Months(l *core.Ledger) []string {
	set := map[string]struct{}{}
	for day := range l.Days {
		set[day.Month()] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// BackupName is the file name ExportMonths uses for month.
func BackupName(month string) string {
	return "kharcha-" + month + ".json"
}

// ExportMonths writes one JSON backup per month into dir and returns the
// written paths in month order. The first failure cancels the rest.
func ExportMonths(ctx context.Context, l *core.Ledger, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	months := Months(l)
	paths := make([]string, len(months))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(backupWorkers)
	for i, month := range months {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, BackupName(month))
			if err := writeFile(path, func(f *os.File) error { return WriteJSON(f, l, month) }); err != nil {
				return fmt.Errorf("backup %s: %w", month, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// writeFile writes through a temporary file renamed into place.
func writeFile(path string, fn func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
