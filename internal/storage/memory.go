package storage

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kharcha/internal/core"
)

// MemoryStore keeps the document in process memory. Nothing survives a
// restart; it backs tests and throwaway sessions.
type MemoryStore struct {
	mu   sync.Mutex
	doc  *core.Ledger
	user *core.User
}

// NewMemoryStore starts empty: the first Load reports a missing document.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFromFiles seeds the settings lists from optional text files
// in base (categories.txt, upi_apps.txt, cards.txt, banks.txt). Missing files
// keep the defaults.
func NewMemoryStoreFromFiles(base string) *MemoryStore {
	doc := core.NewLedger()
	if v := readLines(filepath.Join(base, "categories.txt")); len(v) > 0 {
		doc.Settings.Categories = v
	}
	if v := readLines(filepath.Join(base, "upi_apps.txt")); len(v) > 0 {
		doc.Settings.UpiApps = v
	}
	if v := readLines(filepath.Join(base, "cards.txt")); len(v) > 0 {
		doc.Settings.Cards = v
	}
	if v := readLines(filepath.Join(base, "banks.txt")); len(v) > 0 {
		doc.Settings.Banks = v
	}
	return &MemoryStore{doc: doc}
}

func (s *MemoryStore) Load(_ context.Context) (*core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, &core.StorageReadError{Source: "memory", Err: fmt.Errorf("no ledger document: %w", fs.ErrNotExist)}
	}
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, l *core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = l.Clone()
	return nil
}

func (s *MemoryStore) LoadUser(_ context.Context) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.user = &c
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
