package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kharcha/internal/log"
)

func TestMiddlewareObservesRoute(t *testing.T) {
	type observation struct {
		route, method string
		status        int
	}
	var seen []observation
	m := NewMiddleware(log.Discard(), func(r *http.Request) string { return "127.0.0.1" },
		func(route, method string, status int, _ time.Duration) {
			seen = append(seen, observation{route, method, status})
		})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/daily/{day}", func(w http.ResponseWriter, r *http.Request) {
		if log.RequestID(r.Context()) == "" {
			t.Error("request id missing from context")
		}
		w.WriteHeader(http.StatusAccepted)
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := m.Middleware(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/daily/2024-03-10", nil))
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("X-Request-ID = %q", rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("caller request id not kept: %q", rr.Header().Get("X-Request-ID"))
	}

	want := []observation{
		{"GET /api/daily/{day}", http.MethodGet, http.StatusAccepted},
		{unmatched, http.MethodGet, http.StatusNotFound},
	}
	if len(seen) != len(want) {
		t.Fatalf("observations = %+v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d = %+v, want %+v", i, seen[i], want[i])
		}
	}
	if m.Total() != 2 {
		t.Fatalf("Total() = %d", m.Total())
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b || len(a) != len("req_")+16 {
		t.Fatalf("ids %q, %q", a, b)
	}
}
