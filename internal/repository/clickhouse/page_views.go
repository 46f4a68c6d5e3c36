package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// PageViewRepository implements port.PageViewRepository on a ClickHouse table.
// The log is append-only, so ClickHouse's insert-and-aggregate model fits; the
// dedup lookup is a plain range filter on (fingerprint, path).
type PageViewRepository struct {
	conn driver.Conn
}

// NewPageViewRepository wires a ClickHouse-backed page-view log.
func NewPageViewRepository(conn driver.Conn) *PageViewRepository {
	return &PageViewRepository{conn: conn}
}

// Insert appends one view to the log.
func (r *PageViewRepository) Insert(ctx context.Context, view domain.PageView) error {
	var referrer string
	if view.Referrer != nil {
		referrer = *view.Referrer
	}

	err := r.conn.Exec(ctx, `
		INSERT INTO page_views (id, fingerprint, path, window_width, window_height, referrer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		view.ID,
		view.Fingerprint.String(),
		view.Path,
		int32(view.WindowWidth),
		int32(view.WindowHeight),
		referrer,
		view.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}

	return nil
}

// SeenSince reports whether the fingerprint viewed the path at or after the cutoff.
func (r *PageViewRepository) SeenSince(ctx context.Context, fingerprint domain.Fingerprint, path string, since time.Time) (bool, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT count()
		FROM page_views
		WHERE fingerprint = ? AND path = ? AND created_at >= ?
	`, fingerprint.String(), path, since)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count page views: %w", err)
	}

	return count > 0, nil
}

// Stats aggregates total views, distinct visitors, and recent traffic for a path.
func (r *PageViewRepository) Stats(ctx context.Context, path string, now time.Time) (domain.PageStats, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT
			count(),
			uniqExact(fingerprint),
			countIf(created_at >= ?),
			countIf(created_at >= ?)
		FROM page_views
		WHERE path = ?
	`, now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), path)

	var total, unique, last24h, last7d uint64
	if err := row.Scan(&total, &unique, &last24h, &last7d); err != nil {
		return domain.PageStats{}, fmt.Errorf("scan page stats: %w", err)
	}

	return domain.PageStats{
		TotalViews:     int64(total),
		UniqueVisitors: int64(unique),
		Last24h:        int64(last24h),
		Last7d:         int64(last7d),
	}, nil
}

var _ port.PageViewRepository = (*PageViewRepository)(nil)
