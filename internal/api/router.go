package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/api/handler"
	apimw "github.com/upcheckhq/upcheck/internal/api/middleware"
	"github.com/upcheckhq/upcheck/internal/auth"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
//
// Route groups:
//
//	open:      /health, /metrics, /auth/token — load balancers, Prometheus
//	           and credential exchange must work without a bearer token.
//	protected: everything under /api/v1.
func NewRouter(
	svc *service.CheckService,
	authSvc *auth.Service,
	db handler.Pinger,
	q *queue.ProbeQueue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.RequestID)          // X-Request-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	ch := handler.NewCheckHandler(svc, logger)
	sh := handler.NewStatusHandler(svc, q)
	th := handler.NewTokenHandler(authSvc, logger)
	hh := handler.NewHealthHandler(db)

	// --- open routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/auth/token", th.IssueToken)

	// --- protected routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.RequireAuth(authSvc))

		r.Post("/checks", ch.Create)
		r.Get("/checks", ch.List)
		r.Get("/checks/{id}", ch.GetByID)
		r.Delete("/checks/{id}", ch.Delete)
		r.Post("/checks/{id}/pause", ch.Pause)
		r.Post("/checks/{id}/resume", ch.Resume)
		r.Get("/checks/{id}/results", ch.ListResults)

		r.Get("/status", sh.GetStatus)
	})

	return r
}
