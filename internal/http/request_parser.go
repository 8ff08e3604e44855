// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding request bodies and parsing
// path and query parameters into domain values.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kharcha/internal/accounts"
	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/summary"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 16 << 20
)

// requestError reports a body or parameter that could not be read at all.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

var errEmptyBody = badRequest("request body is empty")

// DecodeJSON reads a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &tooLarge):
			return badRequest("request body too large")
		}
		return badRequest("malformed request body: " + err.Error())
	}
	if dec.More() {
		return badRequest("request body must hold a single object")
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for bodies that may be left out.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := DecodeJSON(w, r, v); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

// EntryRequest is the body of entry create and update calls.
type EntryRequest struct {
	Date        string              `json:"date"`
	Type        core.EntryType      `json:"type"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Note        string              `json:"note"`
	PayMethod   core.PayMethod      `json:"payMethod"`
	PaySubType  string              `json:"paySubType"`
	Amount      decimal.Decimal     `json:"amount"`
	Transfer    *core.TransferRoute `json:"transfer"`
	Split       *SplitRequest       `json:"split"`
}

type SplitRequest struct {
	Mode         core.SplitMode    `json:"mode"`
	Participants []string          `json:"participants"`
	Amounts      []decimal.Decimal `json:"amounts"`
}

// Draft converts the request into the ledger's input type.
func (e EntryRequest) Draft() ledger.Draft {
	d := ledger.Draft{
		Type:        e.Type,
		Description: e.Description,
		Category:    e.Category,
		Note:        e.Note,
		PayMethod:   e.PayMethod,
		PaySubType:  e.PaySubType,
		Amount:      e.Amount,
	}
	if e.Transfer != nil {
		d.Transfer = *e.Transfer
	}
	if e.Split != nil {
		d.Split = &ledger.SplitDraft{
			Mode:         e.Split.Mode,
			Participants: e.Split.Participants,
			Amounts:      e.Split.Amounts,
		}
	}
	return d
}

// DayOr parses s as a day, falling back to def when s is blank.
func DayOr(s string, def core.Day) (core.Day, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := core.ParseDay(strings.TrimSpace(s))
	if err != nil {
		return "", core.Invalid("date", err)
	}
	return d, nil
}

// PathDay reads the {day} path value.
func PathDay(r *http.Request) (core.Day, error) {
	d, err := core.ParseDay(r.PathValue("day"))
	if err != nil {
		return "", core.Invalid("date", err)
	}
	return d, nil
}

// PathMonth reads the {month} path value.
func PathMonth(r *http.Request) (string, error) {
	m, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		return "", core.Invalid("month", err)
	}
	return m, nil
}

// PathEntryID reads the {id} path value.
func PathEntryID(r *http.Request) (core.EntryID, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", core.Invalid("id", core.ErrEmptyID)
	}
	return core.EntryID(id), nil
}

// payMethodParam accepts "", "all" or a known payment method.
func payMethodParam(s string) (core.PayMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return "", nil
	}
	m := core.PayMethod(s)
	if !m.IsValid() {
		return "", core.Invalid("payMethod", core.ErrInvalidPayMethod)
	}
	return m, nil
}

func categoryParam(s string) string {
	s = strings.TrimSpace(s)
	if s == "all" {
		return ""
	}
	return s
}

// ParseSummaryFilter reads period, type, payMethod and category from the
// query string.
func ParseSummaryFilter(q url.Values) (summary.Filter, error) {
	period, err := summary.ParsePeriod(q.Get("period"))
	if err != nil {
		return summary.Filter{}, err
	}
	typ, err := summary.ParseTypeFilter(q.Get("type"))
	if err != nil {
		return summary.Filter{}, err
	}
	method, err := payMethodParam(q.Get("payMethod"))
	if err != nil {
		return summary.Filter{}, err
	}
	return summary.Filter{
		Period:    period,
		Type:      typ,
		PayMethod: method,
		Category:  categoryParam(q.Get("category")),
	}, nil
}

// ParseDrillFilter reads kind, payMethod, category and day from the query
// string.
func ParseDrillFilter(q url.Values) (accounts.DrillFilter, error) {
	method, err := payMethodParam(q.Get("payMethod"))
	if err != nil {
		return accounts.DrillFilter{}, err
	}
	day, err := DayOr(q.Get("day"), "")
	if err != nil {
		return accounts.DrillFilter{}, err
	}
	return accounts.DrillFilter{
		Kind:      strings.TrimSpace(q.Get("kind")),
		PayMethod: method,
		Category:  categoryParam(q.Get("category")),
		Day:       day,
	}, nil
}

// ParsePage reads the 1-based page number. Missing or malformed values give 1.
func ParsePage(q url.Values) int {
	p, err := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	if err != nil || p < 1 {
		return 1
	}
	return p
}
