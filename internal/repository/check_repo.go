package repository

import (
	"context"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// CheckRepository defines all persistence operations for checks and their
// probe results. The pgx implementation is in pg_check_repo.go.
// Tests use a hand-written mock (mock_check_repo.go).
type CheckRepository interface {
	Create(ctx context.Context, c *domain.Check) error
	GetByID(ctx context.Context, id string) (*domain.Check, error)
	List(ctx context.Context, filter domain.CheckFilter) ([]*domain.Check, int, error)
	Delete(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string, nextDue time.Time) error
	Reschedule(ctx context.Context, id string, nextDue time.Time) error
	FindDue(ctx context.Context, limit int) ([]*domain.Check, error)
	ApplyProbe(ctx context.Context, id string, state domain.State, consecutiveFails int, probedAt time.Time) (bool, error)
	CountByState(ctx context.Context) (map[domain.State]int, error)

	RecordResult(ctx context.Context, res *domain.ProbeResult) error
	ListResults(ctx context.Context, checkID string, limit int) ([]*domain.ProbeResult, error)
	DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
