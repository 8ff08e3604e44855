package impexp

import (
	"context"
	"io"

	"kharcha/internal/core"
	"kharcha/internal/log"
)

// Repository is the slice of the ledger repository imports and exports use.
type Repository interface {
	Snapshot(ctx context.Context) (*core.Ledger, error)
	Replace(ctx context.Context, doc *core.Ledger) error
	Import(ctx context.Context, records []core.Record) (int, error)
}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Service runs imports and exports against the repository and logs the
// outcome.
type Service struct {
	repo   Repository
	logger *log.Logger
}

func NewService(repo Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{repo: repo, logger: logger.WithComponent(log.ComponentImport)}
}

// Export writes the current document in format, restricted to month when set.
func (s *Service) Export(ctx context.Context, w io.Writer, format Format, month string) error {
	doc, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	n := doc.Len()
	switch format {
	case FormatCSV:
		n, err = WriteCSV(w, doc, month)
	case FormatXLSX:
		n, err = WriteXLSX(w, doc, month)
	case FormatJSON:
		err = WriteJSON(w, doc, month)
	default:
		return core.Invalid("format", errUnknownFormat(format))
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Export failed", log.FieldOperation, log.OpExport, "format", format, log.FieldError, err)
		return err
	}
	s.logger.InfoContext(ctx, "Ledger exported", log.FieldOperation, log.OpExport, "format", format, log.FieldMonth, month, log.FieldCount, n)
	return nil
}

// ImportCSV appends the rows of a CSV export as new entries. It returns the
// number of imported and skipped rows.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (int, int, error) {
	res, err := ReadCSV(r)
	if err != nil {
		s.logImportError(ctx, FormatCSV, err)
		return 0, 0, err
	}
	n, err := s.repo.Import(ctx, res.Records)
	if err != nil {
		return 0, res.Skipped, err
	}
	s.logger.InfoContext(ctx, "CSV imported", log.FieldOperation, log.OpImport, log.FieldCount, n, log.FieldSkipped, res.Skipped)
	return n, res.Skipped, nil
}

// ImportJSON replaces the whole document with a JSON backup.
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	doc, err := ReadJSON(r)
	if err != nil {
		s.logImportError(ctx, FormatJSON, err)
		return 0, err
	}
	if err := s.repo.Replace(ctx, doc); err != nil {
		return 0, err
	}
	return doc.Len(), nil
}

// Backup writes one JSON file per month into dir.
func (s *Service) Backup(ctx context.Context, dir string) ([]string, error) {
	doc, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := ExportMonths(ctx, doc, dir)
	if err != nil {
		s.logger.ErrorContext(ctx, "Backup failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Backup written", log.FieldOperation, log.OpExport, log.FieldCount, len(paths), "dir", dir)
	return paths, nil
}

func (s *Service) logImportError(ctx context.Context, format Format, err error) {
	s.logger.WarnContext(ctx, "Import rejected",
		log.FieldOperation, log.OpImport,
		"format", format,
		log.FieldError, err,
		log.FieldErrorType, log.ErrorTypeImport)
}

type errUnknownFormat Format

func (e errUnknownFormat) Error() string { return "unknown format " + string(e) }

// ParseFormat maps a file extension or name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", core.Invalid("format", errUnknownFormat(s))
}
