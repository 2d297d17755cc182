package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/repository"
	"github.com/upcheckhq/upcheck/internal/service"
)

func newService() (*service.CheckService, *repository.MockCheckRepository, *queue.ProbeQueue) {
	repo := repository.NewMockCheckRepository()
	q := queue.New()
	svc := service.NewCheckService(repo, q, zap.NewNop())
	return svc, repo, q
}

var validReq = domain.CreateCheckRequest{
	Name:   "payments-api",
	Kind:   domain.KindHTTP,
	Target: "https://payments.internal/healthz",
	Tier:   domain.TierStandard,
}

func TestCheckService_Create(t *testing.T) {
	svc, _, q := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx, validReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected a non-empty ID")
	}
	if c.State != domain.StateUnknown {
		t.Fatalf("expected state=unknown, got %s", c.State)
	}
	if c.IntervalSeconds != domain.DefaultIntervalSeconds {
		t.Fatalf("expected default interval, got %d", c.IntervalSeconds)
	}
	if c.FailThreshold != domain.DefaultFailThreshold {
		t.Fatalf("expected default threshold, got %d", c.FailThreshold)
	}

	critical, standard, background := q.Depths()
	if critical+standard+background == 0 {
		t.Fatal("expected first probe to be enqueued")
	}
	if !c.NextDueAt.After(time.Now().Add(30 * time.Second)) {
		t.Fatalf("expected next_due_at pushed one interval out, got %v", c.NextDueAt)
	}
}

// TestCheckService_Create_QueueFullDefersFirstProbe verifies creation still
// succeeds when the probe queue is saturated: the check is persisted and its
// first probe is left due for a later scheduler tick instead of failing the
// request.
func TestCheckService_Create_QueueFullDefersFirstProbe(t *testing.T) {
	svc, repo, q := newService()
	ctx := context.Background()

	var qerr error
	for i := 0; i < 100000 && qerr == nil; i++ {
		qerr = q.Enqueue(queue.Job{CheckID: "filler", Kind: domain.KindHTTP, Tier: domain.TierStandard})
	}
	if qerr == nil {
		t.Fatal("failed to saturate the standard lane")
	}

	c, err := svc.Create(ctx, validReq)
	if err != nil {
		t.Fatalf("create must not fail on a full queue: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("expected check to be persisted: %v", err)
	}
	if got.NextDueAt.After(time.Now()) {
		t.Fatalf("expected first probe to stay due for the scheduler, got next_due_at=%v", got.NextDueAt)
	}
}

func TestCheckService_Create_InvalidRequest(t *testing.T) {
	svc, _, _ := newService()

	bad := validReq
	bad.Kind = "icmp"
	_, err := svc.Create(context.Background(), bad)
	if err != domain.ErrInvalidKind {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestCheckService_Create_DuplicateName(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, validReq); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, validReq)
	if err != domain.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestCheckService_Pause_States(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		state       domain.State
		expectedErr error
	}{
		{"unknown can be paused", domain.StateUnknown, nil},
		{"passing can be paused", domain.StatePassing, nil},
		{"failing can be paused", domain.StateFailing, nil},
		{"already paused", domain.StatePaused, domain.ErrAlreadyPaused},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newService()

			c, _ := svc.Create(ctx, validReq)
			_, _ = repo.ApplyProbe(ctx, c.ID, tc.state, 0, time.Now())
			if tc.state == domain.StatePaused {
				_ = repo.Pause(ctx, c.ID)
			}

			err := svc.Pause(ctx, c.ID)
			if err != tc.expectedErr {
				t.Fatalf("expected %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestCheckService_Pause_NotFound(t *testing.T) {
	svc, _, _ := newService()
	err := svc.Pause(context.Background(), "nonexistent-id")
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckService_Resume(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	c, _ := svc.Create(ctx, validReq)

	if err := svc.Resume(ctx, c.ID); err != domain.ErrNotPaused {
		t.Fatalf("expected ErrNotPaused for running check, got %v", err)
	}

	if err := svc.Pause(ctx, c.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.Resume(ctx, c.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	got, _ := repo.GetByID(ctx, c.ID)
	if got.State != domain.StateUnknown {
		t.Fatalf("expected state=unknown after resume, got %s", got.State)
	}
	if got.NextDueAt.After(time.Now()) {
		t.Fatal("expected resumed check to be due immediately")
	}
}

func TestCheckService_Delete(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	c, _ := svc.Create(ctx, validReq)

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetByID(ctx, c.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, c.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCheckService_GetByID(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	c, _ := svc.Create(ctx, validReq)

	got, err := svc.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("expected id=%s, got %s", c.ID, got.ID)
	}
}

func TestCheckService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.GetByID(context.Background(), "does-not-exist")
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckService_ListResults(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	c, _ := svc.Create(ctx, validReq)

	for i := 0; i < 3; i++ {
		_ = repo.RecordResult(ctx, &domain.ProbeResult{
			CheckID:  c.ID,
			Outcome:  domain.OutcomeSuccess,
			ProbedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	results, err := svc.ListResults(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestCheckService_ListResults_UnknownCheck(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.ListResults(context.Background(), "does-not-exist", 10)
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckService_Overview(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, validReq)
	second := validReq
	second.Name = "orders-api"
	b, _ := svc.Create(ctx, second)

	_, _ = repo.ApplyProbe(ctx, a.ID, domain.StatePassing, 0, time.Now())
	_, _ = repo.ApplyProbe(ctx, b.ID, domain.StateFailing, 3, time.Now())

	counts, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[domain.StatePassing] != 1 || counts[domain.StateFailing] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
