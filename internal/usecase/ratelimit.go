package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// Limiter enforces per-client, per-endpoint request quotas over fixed windows.
//
// Fixed windows trade boundary bursts (up to twice the budget across two
// adjacent windows) for bounded storage and a single atomic store operation
// per check; this service deters abuse, it does not meter billing.
type Limiter struct {
	store    port.RateLimitStore
	policies map[string]domain.RateLimitPolicy
	logger   *zap.Logger
	now      func() time.Time
}

// NewLimiter constructs a Limiter with the static endpoint budgets.
func NewLimiter(store port.RateLimitStore, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		store:    store,
		policies: domain.DefaultRateLimitPolicies(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic window tests.
func (l *Limiter) WithClock(clock func() time.Time) *Limiter {
	if clock != nil {
		l.now = clock
	}
	return l
}

// Policy returns the budget applied to the endpoint; unknown endpoints share
// the global budget.
func (l *Limiter) Policy(endpoint string) domain.RateLimitPolicy {
	if policy, ok := l.policies[endpoint]; ok {
		return policy
	}
	return l.policies[domain.EndpointGlobal]
}

// Check admits or denies one request for the (client, endpoint) pair. Denial
// is a decision, not an error; an error means the store was unreachable and
// the caller decides whether to fail open or closed.
func (l *Limiter) Check(ctx context.Context, endpoint, clientID string) (domain.RateLimitDecision, error) {
	policy := l.Policy(endpoint)
	now := l.now()

	if swept, err := l.store.Sweep(ctx, endpoint, now.Add(-policy.Window)); err != nil {
		l.logger.Warn("rate limit sweep failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
	} else if swept > 0 {
		l.logger.Debug("swept expired rate limit windows",
			zap.String("endpoint", endpoint),
			zap.Int64("rows", swept),
		)
	}

	win, err := l.store.Increment(ctx, clientID, endpoint, now, policy.Window)
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("increment window for %s: %w", endpoint, err)
	}

	resetAt := win.WindowStart.Add(policy.Window)

	if win.Count > policy.MaxRequests {
		return domain.RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	return domain.RateLimitDecision{
		Allowed:   true,
		Remaining: policy.MaxRequests - win.Count,
		ResetAt:   resetAt,
	}, nil
}
