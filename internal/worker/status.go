package worker

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"minibudget/internal/core"
	apphttp "minibudget/internal/http"
	applog "minibudget/internal/log"
)

// StatusHandler serves the current digests as JSON.
func (w *DigestWorker) StatusHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(w.logger))

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		apphttp.NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(rw)
	})
	r.Get("/digests", func(rw http.ResponseWriter, _ *http.Request) {
		apphttp.NewJSONResponse().Body(map[string]any{"digests": w.Digests()}).Write(rw)
	})
	r.Get("/digests/{month}", func(rw http.ResponseWriter, req *http.Request) {
		month := chi.URLParam(req, "month")
		if _, err := core.ParseMonthKey(month); err != nil {
			apphttp.BadRequestError("month must be YYYY-MM").Write(rw)
			return
		}
		d, ok := w.Digest(month)
		if !ok {
			apphttp.ErrorResponse(http.StatusNotFound, "no digest for "+month).Write(rw)
			return
		}
		apphttp.NewJSONResponse().Body(d).Write(rw)
	})
	return r
}
