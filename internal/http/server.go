package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/cache"
	"kharcha/internal/gate"
	"kharcha/internal/impexp"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/security"
	"kharcha/internal/middleware/trace"
	"kharcha/internal/settings"
)

// Deps are the services the API exposes.
type Deps struct {
	Ledger   *ledger.Repository
	Settings *settings.Registry
	ImpExp   *impexp.Service
	Gate     *gate.Gate
	Logger   *log.Logger
}

type Options struct {
	PageSize   int
	RateLimit  int
	RateWindow time.Duration
	BackupDir  string
	// SessionTTL is how long verified credentials skip the password hash.
	SessionTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		PageSize:   20,
		RateLimit:  60,
		RateWindow: time.Minute,
		SessionTTL: 5 * time.Minute,
	}
}

type Server struct {
	http.Server
	repo      *ledger.Repository
	settings  *settings.Registry
	impexp    *impexp.Service
	gate      *gate.Gate
	logger    *log.Logger
	pageSize  int
	backupDir string

	limiter  *ratelimit.Limiter
	guard    *security.Guard
	tracer   *trace.Middleware
	metrics  *metrics
	sessions *cache.LRUCache[string]
	caches   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Zero options fall back to DefaultOptions.
func NewServer(addr string, deps Deps, opts Options) *Server {
	def := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = def.RateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = def.RateWindow
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = def.SessionTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		repo:      deps.Ledger,
		settings:  deps.Settings,
		impexp:    deps.ImpExp,
		gate:      deps.Gate,
		logger:    logger,
		pageSize:  opts.PageSize,
		backupDir: opts.BackupDir,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.RateLimit,
			Window:   opts.RateWindow,
		}),
		guard:    security.NewGuard(),
		sessions: cache.NewLRUCache[string](16, opts.SessionTTL),
		caches:   cache.NewManager(logger),
	}
	s.caches.Register(s.sessions)
	s.caches.StartCleanup(time.Minute)
	s.metrics = newMetrics(s)
	s.tracer = trace.NewMiddleware(logger, security.ClientIP, s.metrics.observe)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(security.ClientIP, isPost, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = s.guard.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	// User bootstrap runs before any credentials exist.
	mux.HandleFunc("GET /api/user/status", s.handleUserStatus)
	mux.HandleFunc("POST /api/user", s.handleCreateUser)
	mux.HandleFunc("GET /api/user/hint", s.handleUserHint)
	mux.HandleFunc("POST /api/user/reset", s.handleResetPassword)
	mux.HandleFunc("GET /api/session", s.requireAuth(s.handleSession))
	mux.HandleFunc("PUT /api/user/password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("GET /api/entries", s.requireAuth(s.handleListEntries))
	mux.HandleFunc("POST /api/entries", s.requireAuth(s.handleCreateEntry))
	mux.HandleFunc("GET /api/entries/{day}/{id}", s.requireAuth(s.handleGetEntry))
	mux.HandleFunc("PUT /api/entries/{day}/{id}", s.requireAuth(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{day}/{id}", s.requireAuth(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/entries/{day}/{id}/participants/{idx}", s.requireAuth(s.handleParticipantReceived))
	mux.HandleFunc("POST /api/entries/{day}/{id}/settle", s.requireAuth(s.handleSettle))
	mux.HandleFunc("POST /api/instruments", s.requireAuth(s.handleRegisterInstrument))

	mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleSummary))
	mux.HandleFunc("GET /api/daily/{day}", s.requireAuth(s.handleDaily))
	mux.HandleFunc("GET /api/balances/{month}", s.requireAuth(s.handleBalances))
	mux.HandleFunc("GET /api/balances/{month}/{bank}", s.requireAuth(s.handleDrillDown))

	mux.HandleFunc("GET /api/settings", s.requireAuth(s.handleGetSettings))
	mux.HandleFunc("POST /api/settings/reset", s.requireAuth(s.handleResetSettings))
	mux.HandleFunc("POST /api/settings/{list}", s.requireAuth(s.handleAddSetting))
	mux.HandleFunc("DELETE /api/settings/{list}", s.requireAuth(s.handleRemoveSetting))
	mux.HandleFunc("PUT /api/settings/mapping", s.requireAuth(s.handleSetMapping))
	mux.HandleFunc("PUT /api/settings/balances", s.requireAuth(s.handleSetInitialBalance))
	mux.HandleFunc("PUT /api/settings/categories", s.requireAuth(s.handleSetCategories))
	mux.HandleFunc("PUT /api/settings/customization", s.requireAuth(s.handleSetCustomization))

	mux.HandleFunc("GET /api/export/{format}", s.requireAuth(s.handleExport))
	mux.HandleFunc("POST /api/import/{format}", s.requireAuth(s.handleImport))
	mux.HandleFunc("POST /api/backup", s.requireAuth(s.handleBackup))
}

func isPost(r *http.Request) bool {
	return r.Method == http.MethodPost
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// writeError answers with the status mapped from err and logs failures that
// are not the caller's fault.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp, known := ErrorFor(err)
	if !known {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldRequestID, log.RequestID(r.Context()),
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Snapshot(r.Context())
	if err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "ledger unavailable").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]any{"status": "ready", "entries": doc.Len()}).Write(w)
}
