package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/impexp"
)

var contentTypes = map[impexp.Format]string{
	impexp.FormatCSV:  "text/csv; charset=utf-8",
	impexp.FormatJSON: "application/json; charset=utf-8",
	impexp.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleExport streams the ledger as a download. ?month=YYYY-MM restricts
// the export to one month.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := impexp.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month != "" {
		if month, err = core.ParseMonth(month); err != nil {
			s.writeError(w, r, core.Invalid("month", err))
			return
		}
	}

	// Buffered so a failed export can still answer with an error status.
	var buf bytes.Buffer
	if err := s.impexp.Export(r.Context(), &buf, format, month); err != nil {
		s.writeError(w, r, err)
		return
	}

	scope := month
	if scope == "" {
		scope = "all"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="kharcha-%s.%s"`, scope, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleImport appends a CSV export or replaces the document with a JSON
// backup. The body is the raw file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := impexp.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)

	var res importResponse
	switch format {
	case impexp.FormatCSV:
		res.Imported, res.Skipped, err = s.impexp.ImportCSV(r.Context(), body)
	case impexp.FormatJSON:
		res.Imported, err = s.impexp.ImportJSON(r.Context(), body)
	default:
		err = core.Invalid("format", fmt.Errorf("%s files cannot be imported", format))
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backupDir == "" {
		ErrorResponse(http.StatusServiceUnavailable, "backup directory not configured").Write(w)
		return
	}
	paths, err := s.impexp.Backup(r.Context(), s.backupDir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	NewJSONResponse().Data(map[string][]string{"files": paths}).Write(w)
}
