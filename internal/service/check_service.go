package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/repository"
)

// maxResultsPage caps how many probe results a single request may fetch.
const maxResultsPage = 1000

// CheckService coordinates the repository and queue.
// All business rules (name uniqueness, pause state machine, scheduling of
// the first probe) live here. HTTP handlers and workers depend on this
// service, not on each other.
type CheckService struct {
	repo   repository.CheckRepository
	q      *queue.ProbeQueue
	logger *zap.Logger
}

func NewCheckService(
	repo repository.CheckRepository,
	q *queue.ProbeQueue,
	logger *zap.Logger,
) *CheckService {
	return &CheckService{repo: repo, q: q, logger: logger}
}

// Create validates and persists a new check, then enqueues its first probe
// so the caller sees a result without waiting for the next scheduler tick.
func (s *CheckService) Create(ctx context.Context, req domain.CreateCheckRequest) (*domain.Check, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := s.buildCheck(req)

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrNameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("persist check: %w", err)
	}

	s.enqueueProbe(ctx, c)
	return c, nil
}

func (s *CheckService) GetByID(ctx context.Context, id string) (*domain.Check, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CheckService) List(ctx context.Context, filter domain.CheckFilter) ([]*domain.Check, int, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a check and all of its recorded results.
func (s *CheckService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Pause stops scheduling probes for a check. Its state and fail streak are
// preserved so a later resume starts from a clean slate explicitly.
func (s *CheckService) Pause(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.State == domain.StatePaused {
		return domain.ErrAlreadyPaused
	}
	return s.repo.Pause(ctx, id)
}

// Resume puts a paused check back into rotation. The state returns to
// unknown and the check becomes due immediately, so the next scheduler
// tick probes it rather than trusting a stale verdict.
func (s *CheckService) Resume(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.State != domain.StatePaused {
		return domain.ErrNotPaused
	}
	return s.repo.Resume(ctx, id, time.Now().UTC())
}

// ListResults returns the most recent probe results for a check,
// newest first.
func (s *CheckService) ListResults(ctx context.Context, checkID string, limit int) ([]*domain.ProbeResult, error) {
	if _, err := s.repo.GetByID(ctx, checkID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxResultsPage {
		limit = maxResultsPage
	}
	return s.repo.ListResults(ctx, checkID, limit)
}

// Overview reports how many checks are in each state.
func (s *CheckService) Overview(ctx context.Context) (map[domain.State]int, error) {
	return s.repo.CountByState(ctx)
}

// ---- private helpers ----

func (s *CheckService) buildCheck(req domain.CreateCheckRequest) *domain.Check {
	now := time.Now().UTC()

	interval := req.IntervalSeconds
	if interval == 0 {
		interval = domain.DefaultIntervalSeconds
	}
	timeout := req.TimeoutSeconds
	if timeout == 0 {
		timeout = domain.DefaultTimeoutSeconds
	}
	tier := req.Tier
	if tier == "" {
		tier = domain.TierStandard
	}
	threshold := req.FailThreshold
	if threshold == 0 {
		threshold = domain.DefaultFailThreshold
	}

	return &domain.Check{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Kind:            req.Kind,
		Target:          req.Target,
		IntervalSeconds: interval,
		TimeoutSeconds:  timeout,
		Tier:            tier,
		FailThreshold:   threshold,
		AlertURL:        req.AlertURL,
		State:           domain.StateUnknown,
		NextDueAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// enqueueProbe places the check's first probe on the queue and pushes
// next_due_at forward one interval. If the queue is full the check stays
// due, so the scheduler re-attempts it on its next tick; creation itself
// still succeeds.
func (s *CheckService) enqueueProbe(ctx context.Context, c *domain.Check) {
	if err := s.q.Enqueue(queue.Job{
		CheckID: c.ID,
		Kind:    c.Kind,
		Tier:    c.Tier,
	}); err != nil {
		s.logger.Warn("queue full: first probe deferred to scheduler",
			zap.String("id", c.ID), zap.Error(err))
		return
	}

	nextDue := time.Now().UTC().Add(c.Interval())
	if err := s.repo.Reschedule(ctx, c.ID, nextDue); err != nil {
		s.logger.Error("failed to advance next_due_at after enqueue",
			zap.String("id", c.ID), zap.Error(err))
		return
	}
	c.NextDueAt = nextDue
}
