package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/middleware/ratelimit"
	"smartspend/internal/middleware/security"
	"smartspend/internal/middleware/trace"
	"smartspend/internal/services"
	"smartspend/internal/store"
)

// Services are the use cases the API exposes.
type Services struct {
	Expenses  *services.ExpenseService
	Budgets   *services.BudgetService
	Goals     *services.GoalService
	Settings  *services.SettingsService
	Dashboard *services.DashboardService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by caches exposing hit counters.
type StatsReporter interface {
	Stats() cache.Stats
}

type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// BlockSuspicious answers flagged requests with 403 instead of only logging them.
	BlockSuspicious bool
	TrustedProxies  []string
	Caches          map[string]StatsReporter
	ReadyTimeout    time.Duration
	Now             func() time.Time
}

type Server struct {
	http.Server
	svc      Services
	store    Pinger
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   map[string]StatsReporter
	opts     Options

	shutdownOnce sync.Once
}

func NewServer(addr string, svc Services, pinger Pinger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}
	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		svc:      svc,
		store:    pinger,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(limiterCfg),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		caches:   opts.Caches,
		opts:     opts,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger.Slog(), s.opts.BlockSuspicious))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
		}))

		r.Get("/categories", s.handleCategories)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Delete("/expenses", s.handleDeleteExpense)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleSaveBudget)
		r.Delete("/budgets", s.handleDeleteBudget)
		r.Get("/budgets/progress", s.handleBudgetProgress)

		r.Get("/goals", s.handleListGoals)
		r.Post("/goals", s.handleSaveGoal)
		r.Delete("/goals", s.handleDeleteGoal)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSaveSettings)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/export", s.handleExport)
	})
	return r
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// writeError maps service errors onto status codes. Unexpected failures are
// logged and reported with message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, errMissingParam), core.IsValidationError(err):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("not found").Write(w)
	case errors.Is(err, store.ErrDuplicate):
		ConflictError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), message,
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		InternalServerError(message).Write(w)
	}
}

// userID reads the mandatory userId query parameter, answering 400 when it
// is absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := requireQuery(r.URL.Query(), "userId")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return "", false
	}
	return id, true
}

// parseBody parses the request body, answering 400 on malformed input.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return nil, false
	}
	return p, true
}

// bodyUserID prefers the body's userId and falls back to the query string.
func bodyUserID(p *RequestBodyParser, r *http.Request) string {
	if id := p.Get("userId"); id != "" {
		return id
	}
	return sanitizeInput(r.URL.Query().Get("userId"))
}
