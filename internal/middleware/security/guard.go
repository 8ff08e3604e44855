package security

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// GuardMetrics counts refused requests.
type GuardMetrics struct {
	NonLoopback     int64
	RejectedMethods int64
}

// Guard refuses requests that a loopback-only API should never see.
type Guard struct {
	nonLoopback     atomic.Int64
	rejectedMethods atomic.Int64
}

func NewGuard() *Guard {
	return &Guard{}
}

var rejectedMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

// ClientIP returns the direct peer address. Forwarding headers are ignored:
// no proxy sits in front of a loopback listener.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsLoopback reports whether the request comes from the local machine.
func IsLoopback(r *http.Request) bool {
	ip := net.ParseIP(ClientIP(r))
	return ip != nil && ip.IsLoopback()
}

// Middleware answers 403 to non-loopback peers and 405 to diagnostic methods.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsLoopback(r) {
			g.nonLoopback.Add(1)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		for _, m := range rejectedMethods {
			if strings.EqualFold(r.Method, m) {
				g.rejectedMethods.Add(1)
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics returns a snapshot of the refusal counters.
func (g *Guard) Metrics() GuardMetrics {
	return GuardMetrics{
		NonLoopback:     g.nonLoopback.Load(),
		RejectedMethods: g.rejectedMethods.Load(),
	}
}
