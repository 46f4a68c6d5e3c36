package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/repository"
)

// memoryEngagementStore implements port.EngagementRepository with the same
// atomicity guarantees the SQL store provides, guarded by a mutex.
type memoryEngagementStore struct {
	mu      sync.Mutex
	posts   map[string]*domain.BlogPost
	likes   map[string]map[domain.Fingerprint]bool
	failAll error
}

func newMemoryEngagementStore() *memoryEngagementStore {
	return &memoryEngagementStore{
		posts: map[string]*domain.BlogPost{},
		likes: map[string]map[domain.Fingerprint]bool{},
	}
}

func (s *memoryEngagementStore) ensure(slug string) *domain.BlogPost {
	post, ok := s.posts[slug]
	if !ok {
		post = &domain.BlogPost{ID: slug, Slug: slug, CreatedAt: time.Now()}
		s.posts[slug] = post
		s.likes[slug] = map[domain.Fingerprint]bool{}
	}
	return post
}

func (s *memoryEngagementStore) GetBySlug(_ context.Context, slug string) (*domain.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	post, ok := s.posts[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (s *memoryEngagementStore) HasLiked(_ context.Context, slug string, fingerprint domain.Fingerprint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	return s.likes[slug][fingerprint], nil
}

func (s *memoryEngagementStore) ToggleLike(_ context.Context, slug string, fingerprint domain.Fingerprint) (domain.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return domain.LikeResult{}, s.failAll
	}

	post := s.ensure(slug)
	if s.likes[slug][fingerprint] {
		delete(s.likes[slug], fingerprint)
		if post.Likes > 0 {
			post.Likes--
		}
		return domain.LikeResult{Liked: false, Likes: post.Likes}, nil
	}

	s.likes[slug][fingerprint] = true
	post.Likes++
	return domain.LikeResult{Liked: true, Likes: post.Likes}, nil
}

func (s *memoryEngagementStore) AddShare(_ context.Context, slug string, platform domain.SharePlatform, fingerprint *domain.Fingerprint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return 0, s.failAll
	}
	post := s.ensure(slug)
	post.Shares++
	return post.Shares, nil
}

func (s *memoryEngagementStore) IncrementViews(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	s.ensure(slug).Views++
	return nil
}

func newEngagementFixture(t *testing.T) (*EngagementService, *memoryEngagementStore, *memoryPageViewStore) {
	t.Helper()
	posts := newMemoryEngagementStore()
	views := &memoryPageViewStore{}
	analytics := NewAnalyticsService(views, zaptest.NewLogger(t))
	svc := NewEngagementService(posts, analytics, zaptest.NewLogger(t))
	return svc, posts, views
}

func TestEngagementService_Get_UnknownSlugIsZeroState(t *testing.T) {
	svc, _, _ := newEngagementFixture(t)

	engagement := svc.Get(context.Background(), "never-seen", domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 0, 0))
	if engagement != (domain.Engagement{}) {
		t.Fatalf("expected zero engagement for unknown slug, got %+v", engagement)
	}
}

func TestEngagementService_Get_DegradesToZeroStateOnStoreFailure(t *testing.T) {
	svc, posts, _ := newEngagementFixture(t)
	posts.failAll = errors.New("connection refused")

	engagement := svc.Get(context.Background(), "hello-world", domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 0, 0))
	if engagement != (domain.Engagement{}) {
		t.Fatalf("expected zero engagement on store failure, got %+v", engagement)
	}
}

func TestEngagementService_ToggleLike_Alternates(t *testing.T) {
	svc, _, _ := newEngagementFixture(t)

	first, err := svc.ToggleLike(context.Background(), "hello-world", "203.0.113.10", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if !first.Liked || first.Likes != 1 {
		t.Fatalf("expected first toggle to like with count 1, got %+v", first)
	}

	second, err := svc.ToggleLike(context.Background(), "hello-world", "203.0.113.10", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if second.Liked || second.Likes != 0 {
		t.Fatalf("expected second toggle to unlike with count 0, got %+v", second)
	}

	third, err := svc.ToggleLike(context.Background(), "hello-world", "203.0.113.10", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if !third.Liked || third.Likes != 1 {
		t.Fatalf("expected third toggle to like again with count 1, got %+v", third)
	}
}

func TestEngagementService_ToggleLike_CounterMatchesDistinctLikers(t *testing.T) {
	svc, posts, _ := newEngagementFixture(t)

	const clients = 20
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := fmt.Sprintf("203.0.113.%d", n)
			if _, err := svc.ToggleLike(context.Background(), "hello-world", addr, "agent-"+addr); err != nil {
				t.Errorf("ToggleLike returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	post, err := posts.GetBySlug(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if post.Likes != clients {
		t.Fatalf("expected %d likes after %d distinct likers, got %d", clients, clients, post.Likes)
	}
}

func TestEngagementService_RecordView_CountsOncePerHorizon(t *testing.T) {
	svc, posts, views := newEngagementFixture(t)

	fp := domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)

	engagement, err := svc.RecordView(context.Background(), "hello-world", fp)
	if err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}
	if engagement.Views != 1 {
		t.Fatalf("expected first view to count, got %d", engagement.Views)
	}

	// The beacon logs the view; subsequent engagement reads must not count.
	views.views = append(views.views, domain.PageView{
		Fingerprint: fp,
		Path:        "/blog/hello-world",
		CreatedAt:   time.Now().UTC(),
	})

	engagement, err = svc.RecordView(context.Background(), "hello-world", fp)
	if err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}
	if engagement.Views != 1 {
		t.Fatalf("expected repeat view inside the horizon not to count, got %d", engagement.Views)
	}

	post, err := posts.GetBySlug(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if post.Views != 1 {
		t.Fatalf("expected stored view counter 1, got %d", post.Views)
	}
}

func TestEngagementService_RecordView_DoesNotWriteTheViewLog(t *testing.T) {
	svc, _, views := newEngagementFixture(t)

	fp := domain.NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)
	if _, err := svc.RecordView(context.Background(), "hello-world", fp); err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}

	if len(views.views) != 0 {
		t.Fatalf("expected the view log to stay untouched, got %d rows", len(views.views))
	}
}

func TestEngagementService_TrackShare(t *testing.T) {
	svc, _, _ := newEngagementFixture(t)

	shares, err := svc.TrackShare(context.Background(), "hello-world", "twitter", "203.0.113.10", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("TrackShare returned error: %v", err)
	}
	if shares != 1 {
		t.Fatalf("expected share count 1, got %d", shares)
	}

	// Shares are never deduplicated.
	shares, err = svc.TrackShare(context.Background(), "hello-world", "twitter", "203.0.113.10", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("TrackShare returned error: %v", err)
	}
	if shares != 2 {
		t.Fatalf("expected share count 2, got %d", shares)
	}
}

func TestEngagementService_TrackShare_InvalidPlatform(t *testing.T) {
	svc, posts, _ := newEngagementFixture(t)

	_, err := svc.TrackShare(context.Background(), "hello-world", "myspace", "203.0.113.10", "Mozilla/5.0")
	if !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}

	if _, err := posts.GetBySlug(context.Background(), "hello-world"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected nothing written for an invalid platform")
	}
}
