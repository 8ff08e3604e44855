package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
)

// Middleware makes logger available to handlers through FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))
		})
	}
}

// FromContext returns the request logger, or the process default when the
// request did not pass through Middleware.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// RequestIDMiddleware tags the context and its logger with the id chosen by
// pick.
func RequestIDMiddleware(pick func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := pick(r)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = context.WithValue(ctx, loggerKey, FromContext(r.Context()).With(FieldRequestID, id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// HTTPDone logs a finished request. Client errors log at warn and server
// errors at error.
func (l *Logger) HTTPDone(ctx context.Context, r *http.Request, status int, took time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(status, took.Milliseconds(), status < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	if id := RequestID(ctx); id != "" {
		fields.WithRequestID(id)
	}
	l.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}
