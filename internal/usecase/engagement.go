package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
	"github.com/sepehr-mohseni/site-engagement/internal/repository"
)

// ErrInvalidPlatform indicates a share request named an unsupported platform.
var ErrInvalidPlatform = errors.New("invalid share platform")

// EngagementService coordinates the like/share/view counters for blog posts.
type EngagementService struct {
	posts     port.EngagementRepository
	analytics *AnalyticsService
	logger    *zap.Logger
}

// NewEngagementService constructs an EngagementService. The analytics service
// provides the unique-view check that gates blog view counting.
func NewEngagementService(posts port.EngagementRepository, analytics *AnalyticsService, logger *zap.Logger) *EngagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngagementService{
		posts:     posts,
		analytics: analytics,
		logger:    logger,
	}
}

// Get returns the engagement snapshot for a post. Lookup failures degrade to
// the zero state so a storage outage never blanks a rendered page.
func (s *EngagementService) Get(ctx context.Context, slug string, fingerprint domain.Fingerprint) domain.Engagement {
	var engagement domain.Engagement

	post, err := s.posts.GetBySlug(ctx, slug)
	switch {
	case err == nil:
		engagement.Likes = post.Likes
		engagement.Shares = post.Shares
		engagement.Views = post.Views
	case errors.Is(err, repository.ErrNotFound):
		// First visitor to an untouched post.
	default:
		s.logger.Warn("engagement lookup failed", zap.String("slug", slug), zap.Error(err))
		return domain.Engagement{}
	}

	liked, err := s.posts.HasLiked(ctx, slug, fingerprint)
	if err != nil {
		s.logger.Warn("liked lookup failed", zap.String("slug", slug), zap.Error(err))
		return engagement
	}
	engagement.Liked = liked

	return engagement
}

// RecordView counts a unique blog view and returns the fresh snapshot. The
// uniqueness check runs against the page-view log for the post's path; the
// analytics beacon owns writing that log, so a repeat visit inside the horizon
// does not move the counter.
func (s *EngagementService) RecordView(ctx context.Context, slug string, fingerprint domain.Fingerprint) (domain.Engagement, error) {
	unique, err := s.analytics.IsUniqueView(ctx, fingerprint, "/blog/"+slug)
	if err != nil {
		return domain.Engagement{}, err
	}

	if unique {
		if err := s.posts.IncrementViews(ctx, slug); err != nil {
			return domain.Engagement{}, fmt.Errorf("increment blog views: %w", err)
		}
	}

	return s.Get(ctx, slug, fingerprint), nil
}

// ToggleLike flips the caller's like for the post. The repository applies the
// membership change and the counter delta as one atomic unit; an error here
// means no state changed.
func (s *EngagementService) ToggleLike(ctx context.Context, slug, clientAddr, userAgent string) (domain.LikeResult, error) {
	fingerprint := domain.NewFingerprint(clientAddr, userAgent, 0, 0)

	result, err := s.posts.ToggleLike(ctx, slug, fingerprint)
	if err != nil {
		return domain.LikeResult{}, fmt.Errorf("toggle like for %s: %w", slug, err)
	}

	return result, nil
}

// TrackShare appends one share event and returns the updated counter. Shares
// are not deduplicated; every repeat share counts. The platform is validated
// before anything is written.
func (s *EngagementService) TrackShare(ctx context.Context, slug, platform, clientAddr, userAgent string) (int, error) {
	p := domain.SharePlatform(platform)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}

	var fingerprint *domain.Fingerprint
	if clientAddr != "" && userAgent != "" {
		fp := domain.NewFingerprint(clientAddr, userAgent, 0, 0)
		fingerprint = &fp
	}

	shares, err := s.posts.AddShare(ctx, slug, p, fingerprint)
	if err != nil {
		return 0, fmt.Errorf("track share for %s: %w", slug, err)
	}

	return shares, nil
}
