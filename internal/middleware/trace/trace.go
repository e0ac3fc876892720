// Package trace records one structured access log line per request and
// keeps simple request counters.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	applog "minibudget/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger

	totalRequests int64
	serverErrors  int64
	lastLatencyUs int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
	// LastLatency of the most recently completed request, in microseconds
	LastLatency int64
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewStructuredLogger(logger),
	}
}

// Handler must run inside chi's RequestID middleware so the request id
// ends up on the access log line.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&m.totalRequests, 1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= 500 {
			atomic.AddInt64(&m.serverErrors, 1)
		}
		elapsed := time.Since(start)
		atomic.StoreInt64(&m.lastLatencyUs, elapsed.Microseconds())

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), clientIP)
	})
}

// RequestID returns the id chi assigned to the request.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.totalRequests),
		ServerErrors:  atomic.LoadInt64(&m.serverErrors),
		LastLatency:   atomic.LoadInt64(&m.lastLatencyUs),
	}
}

// EchoRequestID copies the request id onto the X-Request-Id response header.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := RequestID(r); id != "" {
			w.Header().Set("X-Request-Id", id)
		}
		next.ServeHTTP(w, r)
	})
}
