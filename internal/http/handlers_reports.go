package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"kharcha/internal/accounts"
	"kharcha/internal/core"
	"kharcha/internal/summary"
)

// handleSummary returns totals and the category breakdown for the filter.
// Only the first page of matching entries is included; the full history is
// paged through /api/entries.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseSummaryFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.repo.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum := summary.Summarize(summary.Flatten(doc), f)
	sum.Entries = summary.History(sum.Entries, s.pageSize)
	if sum.Entries == nil {
		sum.Entries = []core.Record{}
	}
	NewJSONResponse().Data(sum).Write(w)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	day, err := PathDay(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.repo.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(summary.Daily(doc, day)).Write(w)
}

type balancesResponse struct {
	Month string                 `json:"month"`
	Banks []accounts.BankBalance `json:"banks"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	month, err := PathMonth(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.repo.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	banks := accounts.Overview(doc, month)
	if banks == nil {
		banks = []accounts.BankBalance{}
	}
	NewJSONResponse().Data(balancesResponse{Month: month, Banks: banks}).Write(w)
}

type drillDownResponse struct {
	Month      string          `json:"month"`
	Bank       string          `json:"bank"`
	Rows       []accounts.Row  `json:"rows"`
	Categories []string        `json:"categories"`
	Total      decimal.Decimal `json:"total"`
}

func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	month, err := PathMonth(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bank := strings.TrimSpace(r.PathValue("bank"))
	f, err := ParseDrillFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.repo.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := accounts.DrillDown(doc, month, bank, f)
	total := accounts.Total(rows)
	if rows == nil {
		rows = []accounts.Row{}
	}
	categories := accounts.DrillCategories(doc, month, bank)
	if categories == nil {
		categories = []string{}
	}
	NewJSONResponse().Data(drillDownResponse{
		Month:      month,
		Bank:       bank,
		Rows:       rows,
		Categories: categories,
		Total:      total,
	}).Write(w)
}
