// Package httpapi assembles the public router: feature handlers, the shared
// middleware chain, and the operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fecgate/internal/platform/metrics"
	"fecgate/internal/platform/middleware"
	"fecgate/pkg/platform/httputil"
	"fecgate/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by feature handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports the readiness of one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config collects everything the router needs.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar
	Health   []HealthCheck
}

// New builds the router with the standard middleware chain.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(cfg.Metrics))

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleHealth pings every registered dependency. Any failure is a 503 with
// the failing dependencies named, so orchestration can tell "down" from
// "degraded" in logs.
func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				deps[c.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[c.Name] = "ok"
		}

		httputil.WriteJSON(w, status, map[string]any{
			"status":       statusWord(status),
			"dependencies": deps,
		})
	}
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "unavailable"
}
