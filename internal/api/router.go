package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/api/handler"
	apimw "github.com/remindly/issue-reminder/internal/api/middleware"
	"github.com/remindly/issue-reminder/internal/repository"
	"github.com/remindly/issue-reminder/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	intake *service.Intake,
	repo repository.IssueRepository,
	onEvent func(outcome string),
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	wh := handler.NewWebhookHandler(intake, onEvent, logger)
	qh := handler.NewQueueHandler(repo)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/webhook/issue", wh.Receive)

	r.Route("/api/v1", func(r chi.Router) {
		// JSON queue snapshot
		r.Get("/queue", qh.GetQueue)
	})

	return r
}
