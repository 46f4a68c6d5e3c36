package port

import (
	"context"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// EngagementRepository owns blog post aggregates, like memberships, and the
// share log.
//
// ToggleLike and AddShare must apply the membership/log mutation and the
// counter delta as one atomic unit: on any failure the whole operation rolls
// back and no partial state is visible. Counter changes are relative deltas
// applied in the store, never read-modify-write on a fetched value.
type EngagementRepository interface {
	// GetBySlug returns repository.ErrNotFound for slugs with no aggregate yet.
	GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	HasLiked(ctx context.Context, slug string, fingerprint domain.Fingerprint) (bool, error)
	ToggleLike(ctx context.Context, slug string, fingerprint domain.Fingerprint) (domain.LikeResult, error)
	AddShare(ctx context.Context, slug string, platform domain.SharePlatform, fingerprint *domain.Fingerprint) (int, error)
	// IncrementViews lazily creates the aggregate and bumps its view counter.
	IncrementViews(ctx context.Context, slug string) error
}
