package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/repository"
)

// SweeperWorker deletes probe results older than the configured retention
// window. Without it the probe_results table grows by one row per probe
// forever; a fleet of 1000 one-minute checks writes ~1.4M rows a day.
type SweeperWorker struct {
	repo      repository.CheckRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

func NewSweeperWorker(
	repo repository.CheckRepository,
	interval time.Duration,
	retention time.Duration,
	logger *zap.Logger,
) *SweeperWorker {
	return &SweeperWorker{repo: repo, interval: interval, retention: retention, logger: logger}
}

// Run ticks every interval and removes results past retention.
// Stops cleanly when ctx is cancelled.
func (sw *SweeperWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("sweeper worker started",
		zap.Duration("interval", sw.interval),
		zap.Duration("retention", sw.retention),
	)

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("sweeper worker stopping")
			return
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

func (sw *SweeperWorker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-sw.retention)

	deleted, err := sw.repo.DeleteResultsBefore(ctx, cutoff)
	if err != nil {
		sw.logger.Error("sweep error", zap.Error(err))
		return
	}

	if deleted > 0 {
		sw.logger.Info("swept old probe results", zap.Int64("deleted", deleted))
	}
}
