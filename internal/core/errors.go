package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidType        = errors.New("invalid entry type")
	ErrInvalidPayMethod   = errors.New("invalid payment method")
	ErrInvalidSplitMode   = errors.New("invalid split mode")
	ErrNoParticipants     = errors.New("split needs at least one participant")
	ErrSplitCountMismatch = errors.New("number of custom amounts must match participants")
	ErrNegativeShare      = errors.New("custom amounts exceed total")
	ErrEmptyInstrument    = errors.New("empty instrument name")
	ErrEmptyID            = errors.New("empty entry id")
	ErrUnknownList        = errors.New("unknown settings list")
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrNoUser             = errors.New("no user exists")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrNameMismatch       = errors.New("name does not match")
	ErrEmptyPassword      = errors.New("password required")
)

// ValidationError reports user input that blocked a mutation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError on field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// StorageReadError reports a persisted document that could not be read.
// Callers recover with a fresh document.
type StorageReadError struct {
	Source string
	Err    error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read ledger from %s: %v", e.Source, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// ImportFormatError reports an import that was rejected as a whole.
type ImportFormatError struct {
	Format string
	Line   int
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("import %s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("import %s: %v", e.Format, e.Err)
}

func (e *ImportFormatError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
