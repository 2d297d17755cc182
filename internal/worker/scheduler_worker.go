package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/repository"
)

// schedulerBatchSize caps how many due checks one tick may enqueue.
// Anything beyond the cap stays due and is picked up on the next tick.
const schedulerBatchSize = 500

// SchedulerWorker polls the database for checks whose next_due_at has
// passed and enqueues a probe job for each.
//
// next_due_at is only advanced after a successful enqueue, so a full
// queue leaves the check due and the next tick retries it. The DB-backed
// approach means schedules survive server restarts: due times are
// persisted, not held in memory.
type SchedulerWorker struct {
	repo     repository.CheckRepository
	q        *queue.ProbeQueue
	interval time.Duration
	logger   *zap.Logger
}

func NewSchedulerWorker(
	repo repository.CheckRepository,
	q *queue.ProbeQueue,
	interval time.Duration,
	logger *zap.Logger,
) *SchedulerWorker {
	return &SchedulerWorker{repo: repo, q: q, interval: interval, logger: logger}
}

// Run ticks every interval and enqueues any checks that are now due.
// Stops cleanly when ctx is cancelled.
func (sw *SchedulerWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("scheduler worker started", zap.Duration("interval", sw.interval))

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("scheduler worker stopping")
			return
		case <-ticker.C:
			sw.poll(ctx)
		}
	}
}

func (sw *SchedulerWorker) poll(ctx context.Context) {
	checks, err := sw.repo.FindDue(ctx, schedulerBatchSize)
	if err != nil {
		sw.logger.Error("scheduler poll error", zap.Error(err))
		return
	}

	enqueued := 0
	for _, c := range checks {
		if err := sw.q.Enqueue(queue.Job{
			CheckID: c.ID,
			Kind:    c.Kind,
			Tier:    c.Tier,
		}); err != nil {
			sw.logger.Warn("could not enqueue due check",
				zap.String("id", c.ID), zap.Error(err))
			continue
		}

		nextDue := time.Now().UTC().Add(c.Interval())
		if err := sw.repo.Reschedule(ctx, c.ID, nextDue); err != nil {
			sw.logger.Error("failed to advance next_due_at after enqueue",
				zap.String("id", c.ID), zap.Error(err))
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		sw.logger.Info("enqueued due checks", zap.Int("count", enqueued))
	}
}
