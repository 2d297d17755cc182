package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// MockCheckRepository is a hand-written, in-memory implementation of
// CheckRepository used in unit tests. No mock-generation library needed.
type MockCheckRepository struct {
	mu      sync.RWMutex
	checks  map[string]*domain.Check
	results []*domain.ProbeResult
	nextID  int64

	// Optional error overrides — set in tests to simulate failure paths.
	CreateErr       error
	GetByIDErr      error
	FindDueErr      error
	RecordResultErr error
}

func NewMockCheckRepository() *MockCheckRepository {
	return &MockCheckRepository{
		checks: make(map[string]*domain.Check),
	}
}

func (m *MockCheckRepository) Create(_ context.Context, c *domain.Check) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.checks {
		if existing.Name == c.Name {
			return domain.ErrNameTaken
		}
	}
	clone := *c
	m.checks[c.ID] = &clone
	return nil
}

func (m *MockCheckRepository) GetByID(_ context.Context, id string) (*domain.Check, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.checks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *MockCheckRepository) List(_ context.Context, f domain.CheckFilter) ([]*domain.Check, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Check, 0, len(m.checks))
	for _, c := range m.checks {
		if f.State != nil && c.State != *f.State {
			continue
		}
		if f.Kind != nil && c.Kind != *f.Kind {
			continue
		}
		if f.Tier != nil && c.Tier != *f.Tier {
			continue
		}
		clone := *c
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, len(result), nil
}

func (m *MockCheckRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checks, id)
	kept := m.results[:0]
	for _, res := range m.results {
		if res.CheckID != id {
			kept = append(kept, res)
		}
	}
	m.results = kept
	return nil
}

func (m *MockCheckRepository) Pause(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.checks[id]; ok {
		c.State = domain.StatePaused
	}
	return nil
}

func (m *MockCheckRepository) Resume(_ context.Context, id string, nextDue time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.checks[id]; ok {
		c.State = domain.StateUnknown
		c.ConsecutiveFails = 0
		c.NextDueAt = nextDue
	}
	return nil
}

func (m *MockCheckRepository) Reschedule(_ context.Context, id string, nextDue time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.checks[id]; ok {
		c.NextDueAt = nextDue
	}
	return nil
}

func (m *MockCheckRepository) FindDue(_ context.Context, limit int) ([]*domain.Check, error) {
	if m.FindDueErr != nil {
		return nil, m.FindDueErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var due []*domain.Check
	for _, c := range m.checks {
		if c.State == domain.StatePaused || c.NextDueAt.After(now) {
			continue
		}
		clone := *c
		due = append(due, &clone)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextDueAt.Before(due[j].NextDueAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockCheckRepository) ApplyProbe(_ context.Context, id string, state domain.State, consecutiveFails int, probedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.checks[id]
	if !ok || c.State == domain.StatePaused {
		return false, nil
	}
	c.State = state
	c.ConsecutiveFails = consecutiveFails
	c.LastProbedAt = &probedAt
	return true, nil
}

func (m *MockCheckRepository) CountByState(_ context.Context) (map[domain.State]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.State]int)
	for _, c := range m.checks {
		counts[c.State]++
	}
	return counts, nil
}

func (m *MockCheckRepository) RecordResult(_ context.Context, res *domain.ProbeResult) error {
	if m.RecordResultErr != nil {
		return m.RecordResultErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	clone := *res
	clone.ID = m.nextID
	res.ID = m.nextID
	m.results = append(m.results, &clone)
	return nil
}

func (m *MockCheckRepository) ListResults(_ context.Context, checkID string, limit int) ([]*domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.ProbeResult
	for _, res := range m.results {
		if res.CheckID == checkID {
			clone := *res
			results = append(results, &clone)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ProbedAt.After(results[j].ProbedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockCheckRepository) DeleteResultsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	kept := m.results[:0]
	for _, res := range m.results {
		if res.ProbedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, res)
	}
	m.results = kept
	return deleted, nil
}
