package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/queue"
)

func job(id string, tier domain.Tier) queue.Job {
	return queue.Job{CheckID: id, Kind: domain.KindHTTP, Tier: tier}
}

func TestProbeQueue_BasicEnqueueDequeue(t *testing.T) {
	q := queue.New()
	ctx := context.Background()

	if err := q.Enqueue(job("1", domain.TierStandard)); err != nil {
		t.Fatal(err)
	}

	got, ok := q.Dequeue(ctx)
	if !ok {
		t.Fatal("expected job, got nothing")
	}
	if got.CheckID != "1" {
		t.Fatalf("expected id=1, got %s", got.CheckID)
	}
}

// TestProbeQueue_CriticalBeforeStandard verifies that a critical job
// inserted after a standard job is still served first.
func TestProbeQueue_CriticalBeforeStandard(t *testing.T) {
	q := queue.New()
	ctx := context.Background()

	_ = q.Enqueue(job("standard", domain.TierStandard))
	_ = q.Enqueue(job("critical", domain.TierCritical))

	first, _ := q.Dequeue(ctx)
	if first.CheckID != "critical" {
		t.Fatalf("expected critical to be dequeued first, got %q", first.CheckID)
	}
}

// TestProbeQueue_ContextCancellation verifies Dequeue returns (_, false)
// when the context is cancelled while blocking.
func TestProbeQueue_ContextCancellation(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ok=false after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

// TestProbeQueue_ErrQueueFull saturates a lane and verifies the non-blocking
// Enqueue reports ErrQueueFull instead of stalling the caller.
func TestProbeQueue_ErrQueueFull(t *testing.T) {
	q := queue.New()

	// No consumer is running, so the critical lane fills to its capacity.
	var err error
	for i := 0; i < 100000 && err == nil; i++ {
		err = q.Enqueue(job("c", domain.TierCritical))
	}
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// A saturated critical lane must not reject the other tiers.
	if err := q.Enqueue(job("s", domain.TierStandard)); err != nil {
		t.Fatalf("unexpected error on standard lane: %v", err)
	}
	if err := q.Enqueue(job("b", domain.TierBackground)); err != nil {
		t.Fatalf("unexpected error on background lane: %v", err)
	}
}

// TestProbeQueue_UnknownTier verifies Enqueue rejects jobs whose tier does
// not map to a lane instead of silently dropping them.
func TestProbeQueue_UnknownTier(t *testing.T) {
	q := queue.New()

	if err := q.Enqueue(job("x", "vip")); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if err := q.Enqueue(job("x", domain.TierBackground)); err != nil {
		t.Fatalf("unexpected error on empty queue: %v", err)
	}
}

// TestProbeQueue_ConcurrentEnqueueDequeue verifies there are no races
// when multiple goroutines enqueue and dequeue simultaneously.
func TestProbeQueue_ConcurrentEnqueueDequeue(t *testing.T) {
	q := queue.New()

	const producers = 5
	const jobsPerProducer = 100
	const total = producers * jobsPerProducer

	// Count received jobs atomically via a channel.
	received := make(chan struct{}, total)

	// Consumer runs until it gets exactly `total` jobs, then signals done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var consumerDone sync.WaitGroup
	consumerDone.Add(1)
	go func() {
		defer consumerDone.Done()
		for {
			_, ok := q.Dequeue(ctx)
			if !ok {
				return
			}
			received <- struct{}{}
		}
	}()

	// Producers
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < jobsPerProducer; j++ {
				_ = q.Enqueue(job("id", domain.TierStandard))
			}
		}()
	}
	wg.Wait()

	// Wait until all jobs are received, then stop the consumer.
	for i := 0; i < total; i++ {
		select {
		case <-received:
		case <-ctx.Done():
			t.Fatalf("timeout: only received %d/%d jobs", i, total)
		}
	}
	cancel()
	consumerDone.Wait()
}

func TestProbeQueue_Depths(t *testing.T) {
	q := queue.New()

	_ = q.Enqueue(job("c", domain.TierCritical))
	_ = q.Enqueue(job("s1", domain.TierStandard))
	_ = q.Enqueue(job("s2", domain.TierStandard))
	_ = q.Enqueue(job("b", domain.TierBackground))

	critical, standard, background := q.Depths()
	if critical != 1 || standard != 2 || background != 1 {
		t.Fatalf("unexpected depths: critical=%d standard=%d background=%d", critical, standard, background)
	}
}
