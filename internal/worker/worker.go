package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/alert"
	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/prober"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/ratelimiter"
	"github.com/upcheckhq/upcheck/internal/repository"
)

// Worker is a single goroutine that continuously pulls jobs from the probe
// queue, applies per-kind rate limiting, runs the probe, records the result,
// and fires a webhook alert when the check crosses a state boundary.
type Worker struct {
	id       int
	q        *queue.ProbeQueue
	repo     repository.CheckRepository
	prober   prober.Prober
	limiter  *ratelimiter.KindLimiters
	notifier alert.Notifier
	logger   *zap.Logger

	// Hooks for metrics — injected by the pool so the worker stays metrics-agnostic.
	onProbe func(kind domain.Kind, outcome domain.Outcome, latency time.Duration)
	onAlert func(delivered bool)
}

// NewWorker constructs a worker. onProbe and onAlert are optional (nil = no-op).
func NewWorker(
	id int,
	q *queue.ProbeQueue,
	repo repository.CheckRepository,
	pr prober.Prober,
	limiter *ratelimiter.KindLimiters,
	notifier alert.Notifier,
	logger *zap.Logger,
	onProbe func(domain.Kind, domain.Outcome, time.Duration),
	onAlert func(bool),
) *Worker {
	if onProbe == nil {
		onProbe = func(domain.Kind, domain.Outcome, time.Duration) {}
	}
	if onAlert == nil {
		onAlert = func(bool) {}
	}
	return &Worker{
		id: id, q: q, repo: repo, prober: pr,
		limiter: limiter, notifier: notifier, logger: logger,
		onProbe: onProbe, onAlert: onAlert,
	}
}

// Run blocks until ctx is cancelled, processing one queue job per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		job, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("worker stopping", zap.Int("id", w.id))
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	log := w.logger.With(
		zap.String("check_id", job.CheckID),
		zap.String("kind", string(job.Kind)),
	)

	chk, err := w.repo.GetByID(ctx, job.CheckID)
	if err != nil {
		// A deletion between enqueue and processing time is valid; skip silently.
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug("check was deleted before probe ran")
			return
		}
		log.Error("failed to fetch check", zap.Error(err))
		return
	}

	// A pause between enqueue and processing time is valid; skip silently.
	if chk.State == domain.StatePaused {
		log.Debug("check was paused before probe ran")
		return
	}

	// Block here until the per-kind rate limiter grants a token.
	if err := w.limiter.Wait(ctx, chk.Kind); err != nil {
		// ctx cancelled while waiting — worker is shutting down.
		return
	}

	res := w.prober.Probe(ctx, chk)
	elapsed := time.Since(start)

	change := chk.Advance(res.Outcome)

	applied, err := w.repo.ApplyProbe(ctx, chk.ID, chk.State, chk.ConsecutiveFails, res.ProbedAt)
	if err != nil {
		log.Error("failed to apply probe verdict", zap.Error(err))
		return
	}
	if !applied {
		// Paused or deleted while the probe was in flight: the stored row
		// wins, and a stale verdict must not flip state or fire an alert.
		log.Debug("probe verdict discarded")
		return
	}

	if err := w.repo.RecordResult(ctx, &res); err != nil {
		log.Error("failed to record probe result", zap.Error(err))
	}

	w.onProbe(chk.Kind, res.Outcome, elapsed)
	log.Info("probe completed",
		zap.String("outcome", string(res.Outcome)),
		zap.String("state", string(chk.State)),
		zap.Int64("latency_ms", res.LatencyMS),
	)

	if change.ShouldAlert() {
		w.fireAlert(ctx, chk, change, res, log)
	}
}

// fireAlert posts a state-change event to the check's webhook, if one is set.
func (w *Worker) fireAlert(ctx context.Context, chk *domain.Check, change domain.StateChange, res domain.ProbeResult, log *zap.Logger) {
	if chk.AlertURL == nil {
		return
	}

	ev := alert.Event{
		CheckID:   chk.ID,
		CheckName: chk.Name,
		Target:    chk.Target,
		State:     change.To,
		Previous:  change.From,
		FiredAt:   time.Now().UTC(),
	}
	if res.Detail != nil {
		ev.Detail = *res.Detail
	}

	if err := w.notifier.Notify(ctx, *chk.AlertURL, ev); err != nil {
		log.Warn("alert delivery failed",
			zap.String("to", string(change.To)),
			zap.Error(err),
		)
		w.onAlert(false)
		return
	}

	w.onAlert(true)
	log.Info("alert delivered",
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
	)
}
