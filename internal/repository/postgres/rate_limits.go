package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// RateLimitRepository implements port.RateLimitStore on a windowed-counter
// table keyed by (identifier, endpoint).
type RateLimitRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRateLimitRepository wires a PostgreSQL-backed rate-limit store.
func NewRateLimitRepository(exec pgExecutor) *RateLimitRepository {
	return &RateLimitRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Increment rotates or bumps the window for the pair in one conditional upsert.
// The primary key on (identifier, endpoint) makes concurrent first requests
// serialize on the same row, so two checks arriving in the same instant can
// never both observe "no window" and both admit with a fresh count.
func (r *RateLimitRepository) Increment(ctx context.Context, identifier, endpoint string, now time.Time, window time.Duration) (domain.RateLimitWindow, error) {
	expiredBefore := now.Add(-window)

	stmt, args, err := r.builder.
		Insert("rate_limits").
		Columns("identifier", "endpoint", "count", "window_start").
		Values(identifier, endpoint, 1, now).
		Suffix(`ON CONFLICT (identifier, endpoint) DO UPDATE SET
			count = CASE WHEN rate_limits.window_start <= ? THEN 1 ELSE rate_limits.count + 1 END,
			window_start = CASE WHEN rate_limits.window_start <= ? THEN excluded.window_start ELSE rate_limits.window_start END
			RETURNING count, window_start`, expiredBefore, expiredBefore).
		ToSql()
	if err != nil {
		return domain.RateLimitWindow{}, fmt.Errorf("build increment window sql: %w", err)
	}

	win := domain.RateLimitWindow{Identifier: identifier, Endpoint: endpoint}
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&win.Count, &win.WindowStart); err != nil {
		return domain.RateLimitWindow{}, fmt.Errorf("increment rate limit window: %w", err)
	}

	return win, nil
}

// Sweep deletes expired windows for the endpoint.
func (r *RateLimitRepository) Sweep(ctx context.Context, endpoint string, before time.Time) (int64, error) {
	stmt, args, err := r.builder.
		Delete("rate_limits").
		Where(squirrel.Eq{"endpoint": endpoint}).
		Where(squirrel.Lt{"window_start": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep rate limit windows: %w", err)
	}

	return tag.RowsAffected(), nil
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
