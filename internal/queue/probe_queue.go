package queue

import (
	"context"
	"fmt"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// ProbeQueue dispatches jobs to one of three buffered channels based on tier.
//
// Buffer sizes reflect expected traffic ratios:
//
//	Critical:   1 000  — must never accumulate; small buffer applies back-pressure quickly
//	Standard:   5 000  — bulk of the fleet
//	Background: 2 000  — best-effort checks with long intervals
//
// Workers dequeue via the double-select pattern, which guarantees that
// critical probes are always served before standard or background ones, while
// still allowing fair competition between standard and background when
// critical is empty.
type ProbeQueue struct {
	critical   chan Job
	standard   chan Job
	background chan Job
}

func New() *ProbeQueue {
	return &ProbeQueue{
		critical:   make(chan Job, 1000),
		standard:   make(chan Job, 5000),
		background: make(chan Job, 2000),
	}
}

// Enqueue places a job on the appropriate tier channel.
// It is non-blocking: if the target channel is full, ErrQueueFull is returned
// immediately rather than blocking the caller (the scheduler tick).
func (q *ProbeQueue) Enqueue(job Job) error {
	switch job.Tier {
	case domain.TierCritical:
		select {
		case q.critical <- job:
			return nil
		default:
			return domain.ErrQueueFull
		}
	case domain.TierStandard:
		select {
		case q.standard <- job:
			return nil
		default:
			return domain.ErrQueueFull
		}
	case domain.TierBackground:
		select {
		case q.background <- job:
			return nil
		default:
			return domain.ErrQueueFull
		}
	default:
		return fmt.Errorf("unknown tier %q", job.Tier)
	}
}

// Dequeue blocks until a job is available or ctx is cancelled.
//
// Tier guarantee — the double-select pattern:
//  1. A non-blocking select checks the critical channel first. If a job is
//     waiting there, it is returned immediately regardless of standard/background.
//  2. Only when critical is empty does the goroutine enter a fair blocking select
//     across all three channels plus the done signal. This prevents critical
//     starvation while still letting the worker sleep instead of spinning.
//
// Returns (Job{}, false) when ctx is cancelled (graceful shutdown signal).
func (q *ProbeQueue) Dequeue(ctx context.Context) (Job, bool) {
	// Step 1: drain critical before entering a fair wait.
	select {
	case job := <-q.critical:
		return job, true
	default:
	}

	// Step 2: fair competition when critical is empty.
	select {
	case job := <-q.critical:
		return job, true
	case job := <-q.standard:
		return job, true
	case job := <-q.background:
		return job, true
	case <-ctx.Done():
		return Job{}, false
	}
}

// Depths returns the current number of jobs waiting in each tier.
// Used by the metrics gauges for the queue-depth snapshot.
func (q *ProbeQueue) Depths() (critical, standard, background int) {
	return len(q.critical), len(q.standard), len(q.background)
}
