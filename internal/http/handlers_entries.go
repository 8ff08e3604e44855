package http

import (
	"net/http"
	"strconv"

	"kharcha/internal/core"
	"kharcha/internal/summary"
)

// EntryPage is one page of the filtered history, newest first.
type EntryPage struct {
	Entries []core.Record `json:"entries"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
	Total   int           `json:"total"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := ParseSummaryFilter(q)
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
	page := ParsePage(q)
	items, pages := summary.Page(sum.Entries, page, s.pageSize)
	if page > pages {
		page = pages
	}
	if items == nil {
		items = []core.Record{}
	}
	NewJSONResponse().Data(EntryPage{
		Entries: items,
		Page:    page,
		Pages:   pages,
		Total:   len(sum.Entries),
	}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	day, err := DayOr(req.Date, core.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.repo.Add(r.Context(), day, req.Draft())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+string(day)+"/"+string(e.ID)).
		Data(core.Record{Day: day, Entry: e}).
		Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	day, id, ok := s.entryPath(w, r)
	if !ok {
		return
	}
	s.writeEntry(w, r, day, id)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	day, id, ok := s.entryPath(w, r)
	if !ok {
		return
	}
	var req EntryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	newDay, err := DayOr(req.Date, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.repo.Update(r.Context(), day, newDay, id, req.Draft())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(core.Record{Day: newDay, Entry: e}).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	day, id, ok := s.entryPath(w, r)
	if !ok {
		return
	}
	if err := s.repo.Remove(r.Context(), day, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// receivedRequest defaults to received when the flag is omitted.
type receivedRequest struct {
	Received *bool `json:"received"`
}

func (q receivedRequest) value() bool {
	return q.Received == nil || *q.Received
}

func (s *Server) handleParticipantReceived(w http.ResponseWriter, r *http.Request) {
	day, id, ok := s.entryPath(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		s.writeError(w, r, badRequest("participant index must be a number"))
		return
	}
	var req receivedRequest
	if err := DecodeOptionalJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.SetParticipantReceived(r.Context(), id, day, idx, req.value()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEntry(w, r, day, id)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	day, id, ok := s.entryPath(w, r)
	if !ok {
		return
	}
	var req receivedRequest
	if err := DecodeOptionalJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.repo.SetAllParticipantsReceived(r.Context(), id, day, req.value()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEntry(w, r, day, id)
}

type instrumentRequest struct {
	PayMethod core.PayMethod `json:"payMethod"`
	Name      string         `json:"name"`
}

func (s *Server) handleRegisterInstrument(w http.ResponseWriter, r *http.Request) {
	var req instrumentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.repo.RegisterInstrument(r.Context(), req.PayMethod, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]string{"value": v}).Write(w)
}

// entryPath reads {day} and {id}, answering the error itself on failure.
func (s *Server) entryPath(w http.ResponseWriter, r *http.Request) (core.Day, core.EntryID, bool) {
	day, err := PathDay(r)
	if err != nil {
		s.writeError(w, r, err)
		return "", "", false
	}
	id, err := PathEntryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return "", "", false
	}
	return day, id, true
}

func (s *Server) writeEntry(w http.ResponseWriter, r *http.Request, day core.Day, id core.EntryID) {
	e, found, err := s.repo.Get(r.Context(), day, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		NotFoundError("entry not found").Write(w)
		return
	}
	NewJSONResponse().Data(core.Record{Day: day, Entry: e}).Write(w)
}
