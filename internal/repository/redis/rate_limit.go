package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

// FixedWindowConfig defines configuration for the fixed window counters.
type FixedWindowConfig struct {
	KeyPrefix string
}

// RateLimitRepository persists fixed-window counters as Redis keys with a TTL
// equal to the window duration; expiry replaces the explicit sweep.
type RateLimitRepository struct {
	client *redis.Client
	cfg    FixedWindowConfig
}

// NewRateLimitRepository constructs a repository using the provided Redis client and config.
func NewRateLimitRepository(client *redis.Client, cfg FixedWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg}
}

// Increment bumps the counter for the pair, starting a fresh window when the
// key is absent. INCR is atomic in Redis, so concurrent checks for the same
// pair serialize server-side and never double-admit a first request.
func (r *RateLimitRepository) Increment(ctx context.Context, identifier, endpoint string, now time.Time, window time.Duration) (domain.RateLimitWindow, error) {
	if window <= 0 {
		return domain.RateLimitWindow{}, errors.New("window must be positive")
	}

	key := r.key(identifier, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return domain.RateLimitWindow{}, fmt.Errorf("redis incr: %w", err)
	}

	if count == 1 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return domain.RateLimitWindow{}, fmt.Errorf("redis pexpire: %w", err)
		}
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return domain.RateLimitWindow{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. restored from a dump); re-arm it so the
		// window still rotates.
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return domain.RateLimitWindow{}, fmt.Errorf("redis pexpire: %w", err)
		}
		ttl = window
	}

	return domain.RateLimitWindow{
		Identifier:  identifier,
		Endpoint:    endpoint,
		Count:       int(count),
		WindowStart: now.Add(ttl - window),
	}, nil
}

// Sweep is a no-op for Redis; key TTLs expire windows on their own.
func (r *RateLimitRepository) Sweep(ctx context.Context, endpoint string, before time.Time) (int64, error) {
	return 0, nil
}

func (r *RateLimitRepository) key(identifier, endpoint string) string {
	if r.cfg.KeyPrefix == "" {
		return fmt.Sprintf("%s:%s", endpoint, identifier)
	}
	return fmt.Sprintf("%s:%s:%s", r.cfg.KeyPrefix, endpoint, identifier)
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
