package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seta/internal/auth"
	applog "seta/internal/log"
	"seta/internal/middleware/ratelimit"
	"seta/internal/middleware/security"
	"seta/internal/middleware/trace"
	"seta/internal/profile"
	"seta/internal/services"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Ledger     *services.LedgerService
	Dashboards *services.Dashboards
	Profiles   *profile.Service
	Resolver   auth.Resolver
	Logger     *applog.Logger

	// Ready reports whether downstream dependencies are reachable.
	// Nil means always ready.
	Ready func(ctx context.Context) error

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	ledger     *services.LedgerService
	dashboards *services.Dashboards
	profiles   *profile.Service
	resolver   auth.Resolver
	ready      func(ctx context.Context) error
	logger     *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	securityHeaders  *security.HeadersMiddleware
	traceMiddleware  *trace.Middleware

	started time.Time
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		ledger:           deps.Ledger,
		dashboards:       deps.Dashboards,
		profiles:         deps.Profiles,
		resolver:         deps.Resolver,
		ready:            deps.Ready,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		securityDetector: detector,
		securityHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:          time.Now(),
	}
	if s.resolver == nil {
		s.resolver = auth.StaticResolver{}
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(s.securityDetector.Middleware)
	r.Use(s.securityHeaders.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(s.resolver))
		r.Use(s.rateLimiter.Middleware(s.rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		}))

		// Anonymous callers get empty results here.
		r.Get("/summary", s.handleSummary)
		r.Get("/expenses", s.handleListExpenses)
		r.Get("/insight", s.handleInsight)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOwner(func(w http.ResponseWriter, r *http.Request) {
				UnauthorizedError().Write(w)
			}))
			r.Post("/expenses", s.handleCreateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
			r.Get("/export", s.handleExport)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Delete("/session", s.handleSignOut)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

// rateLimitKey limits signed-in owners individually and anonymous
// traffic per client address.
func (s *Server) rateLimitKey(r *http.Request) string {
	if owner, ok := auth.OwnerFromContext(r.Context()); ok {
		return "owner:" + owner
	}
	return "ip:" + s.securityDetector.ExtractClientIP(r)
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.dashboards != nil {
		s.dashboards.CloseAll()
	}
	return s.Server.Shutdown(ctx)
}
