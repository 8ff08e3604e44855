// Package http serves the ledger to a local UI as a JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"kharcha/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter. A 204 response
// never carries a body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent || b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a response carrying an error message.
func ErrorResponse(status int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(status).Data(ErrorBody{Error: message})
}

// BadRequestError creates a 400 response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnauthorizedError creates a 401 response with a Basic challenge.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).
		Header("WWW-Authenticate", `Basic realm="kharcha", charset="UTF-8"`)
}

// ServerError creates a generic 500 response. Details stay in the logs.
func ServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// ErrorFor maps err onto a response. The boolean is false when err is not a
// known domain error and should be logged as a server failure.
func ErrorFor(err error) (*JSONResponseBuilder, bool) {
	var (
		reqErr *requestError
		impErr *core.ImportFormatError
		valErr *core.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		return BadRequestError(reqErr.Error()), true
	case errors.As(err, &impErr):
		return BadRequestError(impErr.Error()), true
	case errors.As(err, &valErr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(ErrorBody{Error: valErr.Err.Error(), Field: valErr.Field}), true
	case errors.Is(err, core.ErrEmptyPassword):
		return ErrorResponse(http.StatusUnprocessableEntity, err.Error()), true
	case errors.Is(err, core.ErrInvalidCredentials):
		return UnauthorizedError(err.Error()), true
	case errors.Is(err, core.ErrNameMismatch):
		return ErrorResponse(http.StatusForbidden, err.Error()), true
	case errors.Is(err, core.ErrNoUser):
		return NotFoundError(err.Error()), true
	case errors.Is(err, core.ErrUserExists):
		return ErrorResponse(http.StatusConflict, err.Error()), true
	}
	return ServerError(), false
}
