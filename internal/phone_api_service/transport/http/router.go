package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			requestID := middleware.GetReqID(r.Context())

			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", ww.Status()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", requestID),
			)
		}
		return http.HandlerFunc(fn)
	}
}

// Handlers collects every handler mounted on the service router.
type Handlers struct {
	Services     *ServicesHandler
	Directory    *DirectoryHandler
	DirectoryAPI *DirectoryAPIHandler
	Quality      *QualityHandler
	Problem      *ProblemHandler
	Information  *InformationHandler
	Auth         *AuthHandler
	Reports      *ReportsAPIHandler
}

// NewRouter assembles the service router with the standard middleware
// chain, the health and metrics endpoints, and every handler's routes.
func NewRouter(h Handlers, logger *slog.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	h.Auth.RegisterRoutes(r)
	h.Services.RegisterRoutes(r)
	h.Directory.RegisterRoutes(r)
	h.DirectoryAPI.RegisterRoutes(r)
	h.Information.RegisterRoutes(r)
	h.Quality.RegisterRoutes(r)
	h.Problem.RegisterRoutes(r)
	h.Reports.RegisterRoutes(r)

	return r
}
