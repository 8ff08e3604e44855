package impexp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"kharcha/internal/core"
)

var errNotObject = errors.New("backup must be a JSON object")

// WriteJSON writes the whole document, two-space indented. A non-empty month
// keeps only that month's day buckets; everything else is written in full.
func WriteJSON(w io.Writer, l *core.Ledger, month string) error {
	out := l
	if month != "" {
		out = l.Clone()
		for day := range out.Days {
			if day.Month() != month {
				delete(out.Days, day)
			}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return nil
}

// ReadJSON decodes a full backup and checks its shape. Missing maps and
// settings are filled with defaults; anything structurally wrong rejects the
// whole file.
func ReadJSON(r io.Reader) (*core.Ledger, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &core.ImportFormatError{Format: "json", Err: err}
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(data) == 0 || data[0] != '{' {
		return nil, &core.ImportFormatError{Format: "json", Err: errNotObject}
	}

	var l core.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, &core.ImportFormatError{Format: "json", Err: err}
	}
	if err := validate(&l); err != nil {
		return nil, &core.ImportFormatError{Format: "json", Err: err}
	}
	l.Normalize()
	return &l, nil
}

func validate(l *core.Ledger) error {
	if l.Version < 0 || l.Version > core.CurrentVersion {
		return fmt.Errorf("unsupported version %d", l.Version)
	}
	seen := make(map[core.EntryID]core.Day)
	for day, entries := range l.Days {
		if _, err := core.ParseDay(string(day)); err != nil {
			return fmt.Errorf("day %q: %w", day, err)
		}
		for i := range entries {
			e := &entries[i]
			if e.ID == "" {
				return fmt.Errorf("day %s entry %d: %w", day, i, core.ErrEmptyID)
			}
			if prev, dup := seen[e.ID]; dup {
				return fmt.Errorf("entry %s appears on %s and %s", e.ID, prev, day)
			}
			seen[e.ID] = day
			if e.Type == "" {
				e.Type = core.Expense
			}
			if !e.Type.IsValid() {
				return fmt.Errorf("entry %s: %w %q", e.ID, core.ErrInvalidType, e.Type)
			}
			if e.Amount.IsNegative() {
				return fmt.Errorf("entry %s: %w", e.ID, core.ErrInvalidAmount)
			}
			if e.Split != nil {
				e.Split.Recompute()
			}
		}
	}
	for month := range l.Accounts {
		if _, err := core.ParseMonth(month); err != nil {
			return fmt.Errorf("accounts %q: %w", month, err)
		}
	}
	return nil
}
