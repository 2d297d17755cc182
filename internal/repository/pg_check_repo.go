package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upcheckhq/upcheck/internal/domain"
)

type pgCheckRepository struct {
	pool *pgxpool.Pool
}

// NewPgCheckRepository returns a CheckRepository backed by PostgreSQL.
func NewPgCheckRepository(pool *pgxpool.Pool) CheckRepository {
	return &pgCheckRepository{pool: pool}
}

func (r *pgCheckRepository) Create(ctx context.Context, c *domain.Check) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO checks
			(id, name, kind, target, interval_seconds, timeout_seconds, tier,
			 fail_threshold, alert_url, state, consecutive_fails, next_due_at,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.Name, c.Kind, c.Target, c.IntervalSeconds, c.TimeoutSeconds, c.Tier,
		c.FailThreshold, c.AlertURL, c.State, c.ConsecutiveFails, c.NextDueAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrNameTaken
		}
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (r *pgCheckRepository) GetByID(ctx context.Context, id string) (*domain.Check, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, kind, target, interval_seconds, timeout_seconds, tier,
		       fail_threshold, alert_url, state, consecutive_fails, last_probed_at,
		       next_due_at, created_at, updated_at
		FROM checks WHERE id = $1`, id)

	c, err := scanCheck(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

func (r *pgCheckRepository) List(ctx context.Context, f domain.CheckFilter) ([]*domain.Check, int, error) {
	where, args := buildCheckWhere(f)
	offset := (f.Page - 1) * f.Limit

	// Count total matching rows for pagination metadata.
	var total int
	countQuery := "SELECT COUNT(*) FROM checks" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count checks: %w", err)
	}

	// Append pagination args after the WHERE args.
	args = append(args, f.Limit, offset)
	limitPlaceholder := fmt.Sprintf("$%d", len(args)-1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args))

	query := fmt.Sprintf(`
		SELECT id, name, kind, target, interval_seconds, timeout_seconds, tier,
		       fail_threshold, alert_url, state, consecutive_fails, last_probed_at,
		       next_due_at, created_at, updated_at
		FROM checks%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`, where, limitPlaceholder, offsetPlaceholder)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	checks, err := scanChecks(rows)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

func (r *pgCheckRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM checks WHERE id = $1`, id)
	return err
}

func (r *pgCheckRepository) Pause(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE checks SET state = 'paused', updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *pgCheckRepository) Resume(ctx context.Context, id string, nextDue time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE checks
		SET state = 'unknown', consecutive_fails = 0, next_due_at = $1, updated_at = NOW()
		WHERE id = $2`, nextDue, id)
	return err
}

func (r *pgCheckRepository) Reschedule(ctx context.Context, id string, nextDue time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE checks SET next_due_at = $1, updated_at = NOW()
		WHERE id = $2`, nextDue, id)
	return err
}

func (r *pgCheckRepository) FindDue(ctx context.Context, limit int) ([]*domain.Check, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, kind, target, interval_seconds, timeout_seconds, tier,
		       fail_threshold, alert_url, state, consecutive_fails, last_probed_at,
		       next_due_at, created_at, updated_at
		FROM checks
		WHERE state <> 'paused'
		  AND next_due_at <= NOW()
		ORDER BY next_due_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("find due checks: %w", err)
	}
	defer rows.Close()
	return scanChecks(rows)
}

// ApplyProbe writes a probe verdict and reports whether a row changed.
// A pause committed while the probe was in flight wins over the verdict,
// so the update refuses to touch paused rows.
func (r *pgCheckRepository) ApplyProbe(ctx context.Context, id string, state domain.State, consecutiveFails int, probedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checks
		SET state = $1, consecutive_fails = $2, last_probed_at = $3, updated_at = NOW()
		WHERE id = $4 AND state <> 'paused'`, state, consecutiveFails, probedAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgCheckRepository) CountByState(ctx context.Context) (map[domain.State]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT state, COUNT(*) FROM checks GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int)
	for rows.Next() {
		var state domain.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[state] = count
	}
	return counts, rows.Err()
}

func (r *pgCheckRepository) RecordResult(ctx context.Context, res *domain.ProbeResult) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO probe_results (check_id, outcome, latency_ms, status_code, detail, probed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		res.CheckID, res.Outcome, res.LatencyMS, res.StatusCode, res.Detail, res.ProbedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

func (r *pgCheckRepository) ListResults(ctx context.Context, checkID string, limit int) ([]*domain.ProbeResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, check_id, outcome, latency_ms, status_code, detail, probed_at
		FROM probe_results
		WHERE check_id = $1
		ORDER BY probed_at DESC
		LIMIT $2`, checkID, limit)
	if err != nil {
		return nil, fmt.Errorf("list probe results: %w", err)
	}
	defer rows.Close()

	var results []*domain.ProbeResult
	for rows.Next() {
		var res domain.ProbeResult
		err := rows.Scan(&res.ID, &res.CheckID, &res.Outcome, &res.LatencyMS,
			&res.StatusCode, &res.Detail, &res.ProbedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}

func (r *pgCheckRepository) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM probe_results WHERE probed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old probe results: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---- helpers ----

// scanCheck reads a single check row from any pgx row type.
func scanCheck(row pgx.Row) (*domain.Check, error) {
	var c domain.Check
	err := row.Scan(
		&c.ID, &c.Name, &c.Kind, &c.Target,
		&c.IntervalSeconds, &c.TimeoutSeconds, &c.Tier,
		&c.FailThreshold, &c.AlertURL, &c.State, &c.ConsecutiveFails,
		&c.LastProbedAt, &c.NextDueAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChecks(rows pgx.Rows) ([]*domain.Check, error) {
	var result []*domain.Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// buildCheckWhere builds a parameterised WHERE clause from a CheckFilter.
func buildCheckWhere(f domain.CheckFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, val any) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if f.State != nil {
		add("state = $%d", *f.State)
	}
	if f.Kind != nil {
		add("kind = $%d", *f.Kind)
	}
	if f.Tier != nil {
		add("tier = $%d", *f.Tier)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
