package port

import (
	"context"
	"time"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// RateLimitStore persists fixed-window request counters.
//
// Increment must be a single atomic operation: when no live window exists for
// the pair (or the stored window started at or before now-window) it starts a
// fresh window with count 1, otherwise it bumps the live window's counter.
// Separate read-then-write implementations admit double requests under
// concurrent checks for the same pair and must not be used.
type RateLimitStore interface {
	Increment(ctx context.Context, identifier, endpoint string, now time.Time, window time.Duration) (domain.RateLimitWindow, error)
	// Sweep removes windows for the endpoint that started before the cutoff.
	// Housekeeping only; correctness never depends on it.
	Sweep(ctx context.Context, endpoint string, before time.Time) (int64, error)
}
