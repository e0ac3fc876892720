package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "minibudget/internal/log"
	"minibudget/internal/middleware/ratelimit"
	"minibudget/internal/middleware/security"
	"minibudget/internal/middleware/trace"
	"minibudget/internal/services"
)

// Options configures the API server.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	svc     *services.BudgetService
	logger  *applog.Logger
	errs    *applog.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(addr string, svc *services.BudgetService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	ips := security.NewClientIPResolver()

	s := &Server{
		svc:    svc,
		logger: opts.Logger.WithComponent(applog.ComponentHTTP),
		errs:   applog.NewStructuredLogger(opts.Logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
		tracer: trace.NewMiddleware(opts.Logger, ips.ClientIP),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(trace.EchoRequestID)
	r.Use(applog.Middleware(opts.Logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(s.tracer.Handler)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		}))

		r.Get("/movements", s.handleListMovements)
		r.Post("/movements", s.handleCreateMovement)
		r.Put("/movements/{id}", s.handleUpdateMovement)
		r.Delete("/movements/{id}", s.handleDeleteMovement)

		r.Get("/month", s.handleCurrentMonth)
		r.Post("/month/prev", s.handleMoveMonth(-1))
		r.Post("/month/next", s.handleMoveMonth(1))
		r.Get("/statement", s.handleStatement)
		r.Get("/months/{month}", s.handleMonthView)

		r.Get("/rates", s.handleRates)
		r.Get("/rates/card", s.handleRatesCard)
		r.Post("/rates/card/refresh", s.handleRefreshRatesCard)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", applog.FieldOperation, applog.OpShutdown)
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics reports request counters for the running server.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Ready() {
		ServiceUnavailableError("ledger loading").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
