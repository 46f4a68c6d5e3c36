package port

import (
	"context"
	"time"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// PageViewRepository exposes the append-only page-view log.
type PageViewRepository interface {
	Insert(ctx context.Context, view domain.PageView) error
	// SeenSince reports whether any view with the same fingerprint and path
	// was recorded at or after the cutoff.
	SeenSince(ctx context.Context, fingerprint domain.Fingerprint, path string, since time.Time) (bool, error)
	Stats(ctx context.Context, path string, now time.Time) (domain.PageStats, error)
}
