package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/alert"
	"github.com/upcheckhq/upcheck/internal/config"
	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/prober"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/ratelimiter"
	"github.com/upcheckhq/upcheck/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnProbe func(kind domain.Kind, outcome domain.Outcome, latency time.Duration)
	OnAlert func(delivered bool)
}

// Pool manages the lifecycle of all probe workers.
// All workers share the same probe queue — the queue's double-select
// pattern handles tier ordering internally.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates cfg.ProbeWorkers identical workers.
// The kind distinction is handled by the rate limiter and the
// prober mux, not by dedicating workers to a kind.
func NewPool(
	cfg *config.Config,
	q *queue.ProbeQueue,
	repo repository.CheckRepository,
	pr prober.Prober,
	limiter *ratelimiter.KindLimiters,
	notifier alert.Notifier,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Worker, cfg.ProbeWorkers)

	for i := range workers {
		workers[i] = NewWorker(
			i, q, repo, pr, limiter, notifier,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnProbe,
			hooks.OnAlert,
		)
	}

	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context to ensure in-flight probes finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
