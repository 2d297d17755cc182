package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/alert"
	"github.com/upcheckhq/upcheck/internal/api"
	"github.com/upcheckhq/upcheck/internal/auth"
	"github.com/upcheckhq/upcheck/internal/config"
	"github.com/upcheckhq/upcheck/internal/db"
	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/metrics"
	"github.com/upcheckhq/upcheck/internal/prober"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/ratelimiter"
	"github.com/upcheckhq/upcheck/internal/repository"
	"github.com/upcheckhq/upcheck/internal/service"
	"github.com/upcheckhq/upcheck/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.New()
	metrics.ObserveQueueDepths(reg, q.Depths)

	repo := repository.NewPgCheckRepository(pool)
	limiter := ratelimiter.New(cfg.ProbeRate)
	svc := service.NewCheckService(repo, q, logger)
	authSvc := auth.NewService(cfg.JWTSecret, cfg.AdminAPIKey, cfg.AuthTokenTTL)
	notifier := alert.NewWebhookNotifier(cfg.AlertTimeout)

	mux := prober.NewMux()
	mux.Register(domain.KindHTTP, prober.NewHTTPProber())
	mux.Register(domain.KindTCP, prober.NewTCPProber())

	// ---- worker pool ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onProbe, onAlert := m.WorkerHooks()
	probePool := worker.NewPool(cfg, q, repo, mux, limiter, notifier, logger, worker.MetricHooks{
		OnProbe: onProbe,
		OnAlert: onAlert,
	})
	probePool.Start(workerCtx)

	schedulerW := worker.NewSchedulerWorker(repo, q, cfg.SchedulerInterval, logger)
	go schedulerW.Run(workerCtx)

	sweeperW := worker.NewSweeperWorker(repo, cfg.SweepInterval, cfg.ResultRetention, logger)
	go sweeperW.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(svc, authSvc, pool, q, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal all workers to stop pulling new probe jobs.
	cancelWorkers()

	// 3. Wait for in-flight workers to finish their current probe.
	probePool.Wait()

	logger.Info("server stopped cleanly")
}
