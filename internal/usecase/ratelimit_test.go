package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// memoryRateLimitStore mirrors the atomic conditional-upsert semantics of the
// persistent stores.
type memoryRateLimitStore struct {
	windows      map[string]*domain.RateLimitWindow
	incrementErr error
	sweepErr     error
	sweeps       int
}

func newMemoryRateLimitStore() *memoryRateLimitStore {
	return &memoryRateLimitStore{windows: map[string]*domain.RateLimitWindow{}}
}

func (s *memoryRateLimitStore) Increment(_ context.Context, identifier, endpoint string, now time.Time, window time.Duration) (domain.RateLimitWindow, error) {
	if s.incrementErr != nil {
		return domain.RateLimitWindow{}, s.incrementErr
	}

	key := identifier + "|" + endpoint
	win, ok := s.windows[key]
	if !ok || !win.WindowStart.After(now.Add(-window)) {
		win = &domain.RateLimitWindow{Identifier: identifier, Endpoint: endpoint, Count: 1, WindowStart: now}
		s.windows[key] = win
	} else {
		win.Count++
	}

	return *win, nil
}

func (s *memoryRateLimitStore) Sweep(_ context.Context, endpoint string, before time.Time) (int64, error) {
	s.sweeps++
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}

	var swept int64
	for key, win := range s.windows {
		if win.Endpoint == endpoint && win.WindowStart.Before(before) {
			delete(s.windows, key)
			swept++
		}
	}
	return swept, nil
}

func TestLimiter_Check_CountsDownToDenial(t *testing.T) {
	store := newMemoryRateLimitStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	policy := limiter.Policy(domain.EndpointContact)
	if policy.MaxRequests != 3 {
		t.Fatalf("expected contact budget of 3, got %d", policy.MaxRequests)
	}

	for i, wantRemaining := range []int{2, 1, 0} {
		decision, err := limiter.Check(context.Background(), domain.EndpointContact, "client-1")
		if err != nil {
			t.Fatalf("check %d returned error: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("check %d unexpectedly denied", i+1)
		}
		if decision.Remaining != wantRemaining {
			t.Fatalf("check %d: expected remaining %d, got %d", i+1, wantRemaining, decision.Remaining)
		}
		if want := now.Add(policy.Window); !decision.ResetAt.Equal(want) {
			t.Fatalf("check %d: expected reset at %v, got %v", i+1, want, decision.ResetAt)
		}
	}

	decision, err := limiter.Check(context.Background(), domain.EndpointContact, "client-1")
	if err != nil {
		t.Fatalf("fourth check returned error: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected fourth check to be denied")
	}
	if decision.Remaining != 0 {
		t.Fatalf("expected remaining 0 on denial, got %d", decision.Remaining)
	}
}

func TestLimiter_Check_WindowRotation(t *testing.T) {
	store := newMemoryRateLimitStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(store, nil).WithClock(func() time.Time { return now })

	policy := limiter.Policy(domain.EndpointLike)

	for i := 0; i < policy.MaxRequests+1; i++ {
		if _, err := limiter.Check(context.Background(), domain.EndpointLike, "client-1"); err != nil {
			t.Fatalf("check returned error: %v", err)
		}
	}

	// Still inside the window: denied.
	now = now.Add(policy.Window - time.Second)
	decision, err := limiter.Check(context.Background(), domain.EndpointLike, "client-1")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected denial just before the window rolls over")
	}

	// Window elapsed: a fresh budget opens.
	now = now.Add(2 * time.Second)
	decision, err = limiter.Check(context.Background(), domain.EndpointLike, "client-1")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected a fresh window after expiry")
	}
	if decision.Remaining != policy.MaxRequests-1 {
		t.Fatalf("expected remaining %d in fresh window, got %d", policy.MaxRequests-1, decision.Remaining)
	}
}

func TestLimiter_Check_IndependentClientsAndEndpoints(t *testing.T) {
	store := newMemoryRateLimitStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiter(store, nil).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(context.Background(), domain.EndpointContact, "client-1"); err != nil {
			t.Fatalf("check returned error: %v", err)
		}
	}

	decision, err := limiter.Check(context.Background(), domain.EndpointContact, "client-2")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if !decision.Allowed || decision.Remaining != 2 {
		t.Fatalf("expected client-2 to have an untouched budget, got %+v", decision)
	}

	decision, err = limiter.Check(context.Background(), domain.EndpointLike, "client-1")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if !decision.Allowed || decision.Remaining != 9 {
		t.Fatalf("expected the like budget to be untouched for client-1, got %+v", decision)
	}
}

func TestLimiter_Policy_UnknownEndpointFallsBackToGlobal(t *testing.T) {
	limiter := NewLimiter(newMemoryRateLimitStore(), nil)

	got := limiter.Policy("no-such-endpoint")
	want := domain.DefaultRateLimitPolicies()[domain.EndpointGlobal]
	if got != want {
		t.Fatalf("expected the global policy %+v, got %+v", want, got)
	}
}

func TestLimiter_Check_StoreErrorSurfaces(t *testing.T) {
	store := newMemoryRateLimitStore()
	store.incrementErr = errors.New("connection refused")
	limiter := NewLimiter(store, nil)

	if _, err := limiter.Check(context.Background(), domain.EndpointContact, "client-1"); err == nil {
		t.Fatalf("expected error when the store is unreachable")
	}
}

func TestLimiter_Check_SweepFailureIsNotFatal(t *testing.T) {
	store := newMemoryRateLimitStore()
	store.sweepErr = errors.New("timeout")
	limiter := NewLimiter(store, zaptest.NewLogger(t))

	decision, err := limiter.Check(context.Background(), domain.EndpointContact, "client-1")
	if err != nil {
		t.Fatalf("expected sweep failure to be non-fatal, got %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected request to be admitted despite sweep failure")
	}
	if store.sweeps != 1 {
		t.Fatalf("expected exactly one sweep attempt, got %d", store.sweeps)
	}
}
