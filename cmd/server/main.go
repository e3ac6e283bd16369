package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/api"
	"github.com/remindly/issue-reminder/internal/config"
	"github.com/remindly/issue-reminder/internal/db"
	"github.com/remindly/issue-reminder/internal/metrics"
	"github.com/remindly/issue-reminder/internal/notifier"
	"github.com/remindly/issue-reminder/internal/ratelimiter"
	"github.com/remindly/issue-reminder/internal/repository"
	"github.com/remindly/issue-reminder/internal/service"
	"github.com/remindly/issue-reminder/internal/worker"
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
	repo := repository.NewPgIssueRepository(pool)
	notif, err := notifier.NewTrackerNotifier(cfg.TrackerAPIURL, cfg.TrackerAPIKey, cfg.ReminderTemplate, cfg.NotifierTimeout)
	if err != nil {
		logger.Fatal("failed to build notifier", zap.Error(err))
	}
	limiter := ratelimiter.New(cfg.RateLimit)
	intake := service.NewIntake(repo, []byte(cfg.WebhookSigningKey), cfg.TargetState, cfg.MaxEventAge, logger)

	// ---- reminder workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	onReminded, onFailed := m.WorkerHooks()
	pool2 := worker.NewPool(cfg, repo, notif, limiter, logger, worker.MetricHooks{
		OnReminded: onReminded,
		OnFailed:   onFailed,
	})
	pool2.Start(workerCtx)

	// Queue depth gauge refresh, on the same cadence as the workers.
	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if stats, err := repo.Stats(workerCtx); err == nil {
					m.QueueDepth.Set(float64(stats.Pending))
				}
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewRouter(intake, repo, m.IntakeHook(), reg, logger)
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

	// 2. Signal all workers to stop claiming new issues.
	cancelWorkers()

	// 3. Wait for in-flight workers to finish their current claim.
	pool2.Wait()

	logger.Info("server stopped cleanly")
}
