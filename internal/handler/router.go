package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Options configures the router.
type Options struct {
	// JWTSecret enables bearer-token auth on /v1 when set.
	JWTSecret string
	// MaxConcurrency caps in-flight chat messages.
	MaxConcurrency int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(engine *service.CommandEngine, metrics *observability.Metrics, logger *zap.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(engine, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	bulkhead := resilience.NewBulkhead(opts.MaxConcurrency)

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(JWTAuthMiddleware([]byte(opts.JWTSecret), logger))
		}

		// Command engine
		r.Post("/chat", chatHandler(engine, bulkhead, logger))
		r.Post("/interpret", interpretHandler(engine, logger))
		r.Get("/intents", intentsHandler(engine))

		// Financial snapshot
		r.Get("/context", contextHandler(engine))

		// Engine metrics
		r.Get("/metrics/engine", engineMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(engine *service.CommandEngine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if engine != nil {
			start := time.Now()
			err := engine.CheckLedger(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("ledger health check failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "ledger-api", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
