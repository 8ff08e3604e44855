package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// writeSettings answers with the current settings view after a change.
func (s *Server) writeSettings(w http.ResponseWriter, r *http.Request) {
	view, err := s.settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeSettings(w, r)
}

type valueRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleAddSetting(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.settings.Add(r.Context(), core.ListName(r.PathValue("list")), req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}

// handleRemoveSetting takes the value from the query string:
// DELETE /api/settings/cards?value=Visa.
func (s *Server) handleRemoveSetting(w http.ResponseWriter, r *http.Request) {
	list := core.ListName(r.PathValue("list"))
	if err := s.settings.Remove(r.Context(), list, r.URL.Query().Get("value")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}

type mappingRequest struct {
	PayMethod core.PayMethod `json:"payMethod"`
	SubType   string         `json:"subType"`
	Bank      *string        `json:"bank"`
}

func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.settings.SetMapping(r.Context(), req.PayMethod, req.SubType, req.Bank); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}

type initialBalanceRequest struct {
	Month  string          `json:"month"`
	Bank   string          `json:"bank"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleSetInitialBalance(w http.ResponseWriter, r *http.Request) {
	var req initialBalanceRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.settings.SetInitialBalance(r.Context(), req.Month, req.Bank, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

func (s *Server) handleSetCategories(w http.ResponseWriter, r *http.Request) {
	var req categoriesRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.settings.SetCategories(r.Context(), req.Categories); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}

func (s *Server) handleSetCustomization(w http.ResponseWriter, r *http.Request) {
	var req core.Customization
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.settings.SetCustomization(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSettings(w, r)
}
