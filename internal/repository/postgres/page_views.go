package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// PageViewRepository implements port.PageViewRepository on an append-only
// page_views table.
type PageViewRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPageViewRepository wires a PostgreSQL-backed page-view log.
func NewPageViewRepository(exec pgExecutor) *PageViewRepository {
	return &PageViewRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends one view to the log.
func (r *PageViewRepository) Insert(ctx context.Context, view domain.PageView) error {
	stmt, args, err := r.builder.
		Insert("page_views").
		Columns("id", "fingerprint", "path", "window_width", "window_height", "referrer", "created_at").
		Values(view.ID, view.Fingerprint.String(), view.Path, view.WindowWidth, view.WindowHeight, view.Referrer, view.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert page view sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}

	return nil
}

// SeenSince reports whether the fingerprint viewed the path at or after the cutoff.
func (r *PageViewRepository) SeenSince(ctx context.Context, fingerprint domain.Fingerprint, path string, since time.Time) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("page_views").
		Where(squirrel.Eq{"fingerprint": fingerprint.String(), "path": path}).
		Where(squirrel.GtOrEq{"created_at": since}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seen since sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("query page views: %w", err)
	}
	defer rows.Close()

	seen := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("scan page views: %w", err)
	}

	return seen, nil
}

// Stats aggregates total views, distinct visitors, and recent traffic for a path.
func (r *PageViewRepository) Stats(ctx context.Context, path string, now time.Time) (domain.PageStats, error) {
	stmt, args, err := r.builder.
		Select("COUNT(*)", "COUNT(DISTINCT fingerprint)").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE created_at >= ?)", now.Add(-24*time.Hour))).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE created_at >= ?)", now.Add(-7*24*time.Hour))).
		From("page_views").
		Where(squirrel.Eq{"path": path}).
		ToSql()
	if err != nil {
		return domain.PageStats{}, fmt.Errorf("build page stats sql: %w", err)
	}

	var stats domain.PageStats
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&stats.TotalViews,
		&stats.UniqueVisitors,
		&stats.Last24h,
		&stats.Last7d,
	); err != nil {
		return domain.PageStats{}, fmt.Errorf("scan page stats: %w", err)
	}

	return stats, nil
}

var _ port.PageViewRepository = (*PageViewRepository)(nil)
