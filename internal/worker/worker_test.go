package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/alert"
	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/ratelimiter"
	"github.com/upcheckhq/upcheck/internal/repository"
	"github.com/upcheckhq/upcheck/internal/worker"
)

// fixedProber returns a canned outcome and records which checks it probed.
type fixedProber struct {
	mu      sync.Mutex
	outcome domain.Outcome
	detail  string
	probed  []string
}

func (f *fixedProber) Probe(_ context.Context, chk *domain.Check) domain.ProbeResult {
	f.mu.Lock()
	f.probed = append(f.probed, chk.ID)
	f.mu.Unlock()

	res := domain.ProbeResult{
		CheckID:  chk.ID,
		Outcome:  f.outcome,
		ProbedAt: time.Now().UTC(),
	}
	if f.detail != "" {
		res.Detail = &f.detail
	}
	return res
}

func (f *fixedProber) probedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probed...)
}

// chanNotifier pushes every delivered event onto a channel.
type chanNotifier struct {
	events chan alert.Event
}

func (n *chanNotifier) Notify(_ context.Context, _ string, ev alert.Event) error {
	n.events <- ev
	return nil
}

type fixture struct {
	repo     *repository.MockCheckRepository
	q        *queue.ProbeQueue
	prober   *fixedProber
	notifier *chanNotifier
	onProbe  chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// startWorker wires a single worker around the mock repo and stub prober.
// The onProbe channel signals after the verdict and result are persisted.
func startWorker(t *testing.T, outcome domain.Outcome, detail string) *fixture {
	t.Helper()

	f := &fixture{
		repo:     repository.NewMockCheckRepository(),
		q:        queue.New(),
		prober:   &fixedProber{outcome: outcome, detail: detail},
		notifier: &chanNotifier{events: make(chan alert.Event, 10)},
		onProbe:  make(chan struct{}, 10),
		done:     make(chan struct{}),
	}

	w := worker.NewWorker(
		0, f.q, f.repo, f.prober,
		ratelimiter.New(1000), f.notifier, zap.NewNop(),
		func(domain.Kind, domain.Outcome, time.Duration) { f.onProbe <- struct{}{} },
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() {
		defer close(f.done)
		w.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-f.done
	})
	return f
}

func (f *fixture) addCheck(t *testing.T, state domain.State, fails int, alertURL *string) *domain.Check {
	t.Helper()
	c := &domain.Check{
		ID:               "chk-" + string(state),
		Name:             "svc-" + string(state),
		Kind:             domain.KindHTTP,
		Target:           "https://svc.internal/healthz",
		IntervalSeconds:  60,
		TimeoutSeconds:   5,
		Tier:             domain.TierStandard,
		FailThreshold:    3,
		AlertURL:         alertURL,
		State:            state,
		ConsecutiveFails: fails,
		NextDueAt:        time.Now().UTC(),
	}
	if err := f.repo.Create(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) enqueue(t *testing.T, c *domain.Check) {
	t.Helper()
	if err := f.q.Enqueue(queue.Job{CheckID: c.ID, Kind: c.Kind, Tier: c.Tier}); err != nil {
		t.Fatal(err)
	}
}

func waitSignal(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}

func TestWorker_SuccessAppliesStateAndRecordsResult(t *testing.T) {
	f := startWorker(t, domain.OutcomeSuccess, "")
	c := f.addCheck(t, domain.StateUnknown, 0, nil)

	f.enqueue(t, c)
	waitSignal(t, f.onProbe, "probe completion")

	got, err := f.repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != domain.StatePassing {
		t.Fatalf("expected passing, got %s", got.State)
	}
	if got.LastProbedAt == nil {
		t.Fatal("expected last_probed_at to be set")
	}

	results, _ := f.repo.ListResults(context.Background(), c.ID, 10)
	if len(results) != 1 {
		t.Fatalf("expected 1 recorded result, got %d", len(results))
	}
	if results[0].Outcome != domain.OutcomeSuccess {
		t.Fatalf("expected recorded success, got %s", results[0].Outcome)
	}

	select {
	case ev := <-f.notifier.events:
		t.Fatalf("unexpected alert for first pass: %+v", ev)
	default:
	}
}

func TestWorker_ThresholdCrossingFiresAlert(t *testing.T) {
	f := startWorker(t, domain.OutcomeFailure, "unexpected status: 503")
	url := "https://hooks.internal/upcheck"
	c := f.addCheck(t, domain.StatePassing, 2, &url)

	f.enqueue(t, c)
	waitSignal(t, f.onProbe, "probe completion")

	select {
	case ev := <-f.notifier.events:
		if ev.State != domain.StateFailing || ev.Previous != domain.StatePassing {
			t.Fatalf("unexpected alert transition: %+v", ev)
		}
		if ev.Detail != "unexpected status: 503" {
			t.Fatalf("expected failure detail in alert, got %q", ev.Detail)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected alert for threshold crossing")
	}

	got, _ := f.repo.GetByID(context.Background(), c.ID)
	if got.State != domain.StateFailing {
		t.Fatalf("expected failing, got %s", got.State)
	}
}

func TestWorker_FailureBelowThresholdStaysQuiet(t *testing.T) {
	f := startWorker(t, domain.OutcomeFailure, "dial failed")
	url := "https://hooks.internal/upcheck"
	c := f.addCheck(t, domain.StatePassing, 0, &url)

	f.enqueue(t, c)
	waitSignal(t, f.onProbe, "probe completion")

	got, _ := f.repo.GetByID(context.Background(), c.ID)
	if got.State != domain.StatePassing {
		t.Fatalf("expected still passing, got %s", got.State)
	}
	if got.ConsecutiveFails != 1 {
		t.Fatalf("expected 1 consecutive fail, got %d", got.ConsecutiveFails)
	}

	select {
	case ev := <-f.notifier.events:
		t.Fatalf("unexpected alert below threshold: %+v", ev)
	default:
	}
}

func TestWorker_RecoveryFiresAlert(t *testing.T) {
	f := startWorker(t, domain.OutcomeSuccess, "")
	url := "https://hooks.internal/upcheck"
	c := f.addCheck(t, domain.StateFailing, 3, &url)

	f.enqueue(t, c)
	waitSignal(t, f.onProbe, "probe completion")

	select {
	case ev := <-f.notifier.events:
		if ev.State != domain.StatePassing || ev.Previous != domain.StateFailing {
			t.Fatalf("unexpected alert transition: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected recovery alert")
	}
}

func TestWorker_TransitionWithoutAlertURLStaysQuiet(t *testing.T) {
	f := startWorker(t, domain.OutcomeFailure, "dial failed")
	c := f.addCheck(t, domain.StatePassing, 2, nil)

	f.enqueue(t, c)
	waitSignal(t, f.onProbe, "probe completion")

	got, _ := f.repo.GetByID(context.Background(), c.ID)
	if got.State != domain.StateFailing {
		t.Fatalf("expected failing, got %s", got.State)
	}
	select {
	case ev := <-f.notifier.events:
		t.Fatalf("alert fired with no alert_url configured: %+v", ev)
	default:
	}
}

// pausingProber pauses a designated check while its probe is in flight,
// mimicking an operator pausing a check whose job is already dequeued.
type pausingProber struct {
	repo    *repository.MockCheckRepository
	pauseID string
	outcome domain.Outcome
}

func (p *pausingProber) Probe(ctx context.Context, chk *domain.Check) domain.ProbeResult {
	if chk.ID == p.pauseID {
		_ = p.repo.Pause(ctx, chk.ID)
	}
	return domain.ProbeResult{CheckID: chk.ID, Outcome: p.outcome, ProbedAt: time.Now().UTC()}
}

func TestWorker_PauseDuringProbeDiscardsVerdict(t *testing.T) {
	repo := repository.NewMockCheckRepository()
	q := queue.New()
	notifier := &chanNotifier{events: make(chan alert.Event, 10)}
	onProbe := make(chan struct{}, 10)

	url := "https://hooks.internal/upcheck"
	target := &domain.Check{
		ID:               "chk-inflight",
		Name:             "svc-inflight",
		Kind:             domain.KindHTTP,
		Target:           "https://svc.internal/healthz",
		IntervalSeconds:  60,
		TimeoutSeconds:   5,
		Tier:             domain.TierStandard,
		FailThreshold:    3,
		AlertURL:         &url,
		State:            domain.StatePassing,
		ConsecutiveFails: 2,
		NextDueAt:        time.Now().UTC(),
	}
	sentinel := &domain.Check{
		ID:              "chk-sentinel",
		Name:            "svc-sentinel",
		Kind:            domain.KindHTTP,
		Target:          "https://svc.internal/healthz",
		IntervalSeconds: 60,
		TimeoutSeconds:  5,
		Tier:            domain.TierStandard,
		FailThreshold:   3,
		State:           domain.StateUnknown,
		NextDueAt:       time.Now().UTC(),
	}
	for _, c := range []*domain.Check{target, sentinel} {
		if err := repo.Create(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}

	// One more failure would cross the threshold, so a lost pause here would
	// both flip the state to failing and fire an alert.
	w := worker.NewWorker(
		0, q, repo, &pausingProber{repo: repo, pauseID: target.ID, outcome: domain.OutcomeFailure},
		ratelimiter.New(1000), notifier, zap.NewNop(),
		func(domain.Kind, domain.Outcome, time.Duration) { onProbe <- struct{}{} },
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	_ = q.Enqueue(queue.Job{CheckID: target.ID, Kind: target.Kind, Tier: target.Tier})
	_ = q.Enqueue(queue.Job{CheckID: sentinel.ID, Kind: sentinel.Kind, Tier: sentinel.Tier})

	// The single worker drains the lane in order: discarded verdicts do not
	// signal onProbe, so the sentinel's signal means the target is settled.
	waitSignal(t, onProbe, "sentinel probe completion")

	got, err := repo.GetByID(context.Background(), target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != domain.StatePaused {
		t.Fatalf("expected pause to survive the in-flight probe, got %s", got.State)
	}
	if got.ConsecutiveFails != 2 {
		t.Fatalf("expected fail streak untouched, got %d", got.ConsecutiveFails)
	}
	if got.LastProbedAt != nil {
		t.Fatal("expected last_probed_at untouched for a discarded verdict")
	}

	results, _ := repo.ListResults(context.Background(), target.ID, 10)
	if len(results) != 0 {
		t.Fatalf("expected no recorded result for a discarded verdict, got %d", len(results))
	}

	select {
	case ev := <-notifier.events:
		t.Fatalf("unexpected alert from a discarded verdict: %+v", ev)
	default:
	}
}

func TestWorker_SkipsPausedAndDeletedChecks(t *testing.T) {
	f := startWorker(t, domain.OutcomeSuccess, "")

	paused := f.addCheck(t, domain.StatePaused, 0, nil)
	live := f.addCheck(t, domain.StateUnknown, 0, nil)

	// Job for a check that no longer exists.
	_ = f.q.Enqueue(queue.Job{CheckID: "ghost", Kind: domain.KindHTTP, Tier: domain.TierStandard})
	f.enqueue(t, paused)
	f.enqueue(t, live)

	// Only the live check reaches the prober; jobs are handled in order.
	waitSignal(t, f.onProbe, "probe completion")

	ids := f.prober.probedIDs()
	if len(ids) != 1 || ids[0] != live.ID {
		t.Fatalf("expected only %q to be probed, got %v", live.ID, ids)
	}
}
