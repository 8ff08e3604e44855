// Package ledger is the entry repository: every mutation of the ledger
// document goes through a Repository, which loads the whole document,
// applies one change and saves it back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

// Store is the whole-document persistence contract.
type Store interface {
	Load(ctx context.Context) (*core.Ledger, error)
	Save(ctx context.Context, l *core.Ledger) error
}

// errUnchanged aborts a mutation without saving and without an error.
var errUnchanged = errors.New("unchanged")

type Repository struct {
	mu     sync.Mutex
	store  Store
	logger *log.Logger
	newID  func() core.EntryID
	now    func() time.Time
}

func NewRepository(store Store, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Repository{
		store:  store,
		logger: logger.WithComponent(log.ComponentLedger),
		newID:  newEntryID,
		now:    time.Now,
	}
}

func newEntryID() core.EntryID {
	id, err := uuid.NewV7()
	if err != nil {
		return core.EntryID(uuid.New().String())
	}
	return core.EntryID(id.String())
}

// load returns the stored document, or a fresh one when it cannot be read.
func (r *Repository) load(ctx context.Context) (*core.Ledger, error) {
	doc, err := r.store.Load(ctx)
	if err == nil {
		return doc, nil
	}
	var rerr *core.StorageReadError
	if !errors.As(err, &rerr) {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.InfoContext(ctx, "No ledger found, starting with defaults", log.FieldSource, rerr.Source)
	} else {
		r.logger.WarnContext(ctx, "Ledger unreadable, starting with defaults",
			log.FieldSource, rerr.Source,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeStorage)
	}
	return core.NewLedger(), nil
}

// Mutate runs fn against the current document and saves the result. If fn
// fails nothing is written.
func (r *Repository) Mutate(ctx context.Context, fn func(*core.Ledger) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	if err := r.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Snapshot returns a private copy of the current document for read paths.
func (r *Repository) Snapshot(ctx context.Context) (*core.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Replace swaps the whole document, as a JSON import does.
func (r *Repository) Replace(ctx context.Context, doc *core.Ledger) error {
	doc.Normalize()
	err := r.Mutate(ctx, func(l *core.Ledger) error {
		*l = *doc.Clone()
		return nil
	})
	if err == nil {
		r.logger.InfoContext(ctx, "Ledger replaced", log.FieldOperation, log.OpImport, log.FieldCount, doc.Len())
	}
	return err
}

// Add validates the draft and stores it as a new entry on day.
func (r *Repository) Add(ctx context.Context, day core.Day, d Draft) (core.Entry, error) {
	if _, err := core.ParseDay(string(day)); err != nil {
		return core.Entry{}, core.Invalid("date", err)
	}

	var out core.Entry
	err := r.Mutate(ctx, func(l *core.Ledger) error {
		e, err := build(l, d)
		if err != nil {
			return err
		}
		e.ID = r.newID()
		e.CreatedAt = r.now().UTC()
		l.Days[day] = append(l.Days[day], e)
		out = e
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}

	r.logger.InfoContext(ctx, "Entry added", log.NewFields().
		WithOperation(log.OpCreate).
		WithEntry(day.String(), string(out.ID), string(out.Type), out.Amount.StringFixed(2)).
		ToSlice()...)
	return out.Clone(), nil
}

// Update moves entry id from originalDay to newDay with the draft's values.
// A missing original is not an error, so retries are safe.
func (r *Repository) Update(ctx context.Context, originalDay, newDay core.Day, id core.EntryID, d Draft) (core.Entry, error) {
	if id == "" {
		return core.Entry{}, core.Invalid("id", core.ErrEmptyID)
	}
	if _, err := core.ParseDay(string(newDay)); err != nil {
		return core.Entry{}, core.Invalid("date", err)
	}

	var out core.Entry
	err := r.Mutate(ctx, func(l *core.Ledger) error {
		e, err := build(l, d)
		if err != nil {
			return err
		}
		e.ID = id
		e.CreatedAt = r.now().UTC()

		if prev, ok := removeEntry(l, originalDay, id); ok {
			carryReceived(prev, &e)
		}
		removeEntry(l, newDay, id)
		l.Days[newDay] = append(l.Days[newDay], e)
		out = e
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}

	r.logger.InfoContext(ctx, "Entry updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithEntry(newDay.String(), string(id), string(out.Type), out.Amount.StringFixed(2)).
		ToSlice()...)
	return out.Clone(), nil
}

// Remove deletes entry id from day. Missing entries are ignored.
func (r *Repository) Remove(ctx context.Context, day core.Day, id core.EntryID) error {
	removed := false
	err := r.Mutate(ctx, func(l *core.Ledger) error {
		if _, ok := removeEntry(l, day, id); !ok {
			return errUnchanged
		}
		removed = true
		return nil
	})
	if err == nil && removed {
		r.logger.InfoContext(ctx, "Entry removed", log.FieldOperation, log.OpDelete, log.FieldDay, day, log.FieldEntryID, id)
	}
	return err
}

// SetParticipantReceived flips one participant's received flag. It is a
// silent no-op when the entry, its split or the participant is missing.
func (r *Repository) SetParticipantReceived(ctx context.Context, id core.EntryID, day core.Day, participant int, received bool) error {
	return r.Mutate(ctx, func(l *core.Ledger) error {
		i := l.Find(day, id)
		if i < 0 {
			return errUnchanged
		}
		s := l.Days[day][i].Split
		if s == nil || participant < 0 || participant >= len(s.Participants) {
			return errUnchanged
		}
		s.Participants[participant].Received = received
		s.Recompute()
		return nil
	})
}

// SetAllParticipantsReceived marks every participant received (settled) or
// not received (pending).
func (r *Repository) SetAllParticipantsReceived(ctx context.Context, id core.EntryID, day core.Day, received bool) error {
	return r.Mutate(ctx, func(l *core.Ledger) error {
		i := l.Find(day, id)
		if i < 0 {
			return errUnchanged
		}
		s := l.Days[day][i].Split
		if s == nil {
			return errUnchanged
		}
		for p := range s.Participants {
			s.Participants[p].Received = received
		}
		if received {
			s.Status = core.SplitSettled
		} else {
			s.Status = core.SplitPending
		}
		r.logger.DebugContext(ctx, "Split settlement toggled", log.FieldOperation, log.OpSettle, log.FieldEntryID, id, "received", received)
		return nil
	})
}

// Get returns entry id from day.
func (r *Repository) Get(ctx context.Context, day core.Day, id core.EntryID) (core.Entry, bool, error) {
	doc, err := r.Snapshot(ctx)
	if err != nil {
		return core.Entry{}, false, err
	}
	i := doc.Find(day, id)
	if i < 0 {
		return core.Entry{}, false, nil
	}
	return doc.Days[day][i], true, nil
}

// Day returns the entries stored on day in insertion order.
func (r *Repository) Day(ctx context.Context, day core.Day) ([]core.Entry, error) {
	doc, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Days[day], nil
}

// Import appends already-built entries under fresh ids in one save.
func (r *Repository) Import(ctx context.Context, records []core.Record) (int, error) {
	err := r.Mutate(ctx, func(l *core.Ledger) error {
		for _, rec := range records {
			e := rec.Entry.Clone()
			e.ID = r.newID()
			if e.CreatedAt.IsZero() {
				e.CreatedAt = r.now().UTC()
			}
			if e.Split != nil {
				e.Split.Recompute()
			}
			l.Days[rec.Day] = append(l.Days[rec.Day], e)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.InfoContext(ctx, "Entries imported", log.FieldOperation, log.OpImport, log.FieldCount, len(records))
	return len(records), nil
}

// RegisterInstrument adds a new payment sub-type to the settings list of
// method and returns it, so it can be used in the entry being written.
func (r *Repository) RegisterInstrument(ctx context.Context, method core.PayMethod, name string) (string, error) {
	list, ok := core.InstrumentList(method)
	if !ok {
		return "", core.Invalid("payMethod", core.ErrInvalidPayMethod)
	}
	v, err := registerValue(name)
	if err != nil {
		return "", err
	}
	err = r.Mutate(ctx, func(l *core.Ledger) error {
		p := l.Settings.List(list)
		var added bool
		if *p, added = core.AddUnique(*p, v); !added {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return v, nil
}

// removeEntry drops id from the day bucket and deletes the bucket when it
// becomes empty.
func removeEntry(l *core.Ledger, day core.Day, id core.EntryID) (core.Entry, bool) {
	i := l.Find(day, id)
	if i < 0 {
		return core.Entry{}, false
	}
	bucket := l.Days[day]
	prev := bucket[i]
	bucket = append(bucket[:i:i], bucket[i+1:]...)
	if len(bucket) == 0 {
		delete(l.Days, day)
	} else {
		l.Days[day] = bucket
	}
	return prev, true
}

// carryReceived keeps settlement progress for participants that survive an edit.
func carryReceived(prev core.Entry, next *core.Entry) {
	if !prev.HasSplit() || !next.HasSplit() {
		return
	}
	received := make(map[string]bool, len(prev.Split.Participants))
	for _, p := range prev.Split.Participants {
		if p.Received {
			received[p.Name] = true
		}
	}
	for i, p := range next.Split.Participants {
		if received[p.Name] {
			next.Split.Participants[i].Received = true
		}
	}
	next.Split.Recompute()
}
