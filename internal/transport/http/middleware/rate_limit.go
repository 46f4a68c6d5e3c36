package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
)

const (
	rateLimitProblemType  = "https://sepehrmohseni.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"

	quotaUnavailableProblemType  = "https://sepehrmohseni.com/errors/rate-limit-unavailable"
	quotaUnavailableProblemTitle = "Rate Limit Check Unavailable"
)

// LimitChecker is the quota decision surface the middleware depends on.
type LimitChecker interface {
	Check(ctx context.Context, endpoint, clientID string) (domain.RateLimitDecision, error)
	Policy(endpoint string) domain.RateLimitPolicy
}

// Rule subjects a route to one endpoint budget. FailOpen admits the request
// when the quota store is unreachable; only the low-stakes analytics beacon
// opts into that, mutating routes stay fail-closed.
type Rule struct {
	Endpoint string
	FailOpen bool
}

// RateLimiter builds per-route quota middleware around a LimitChecker.
type RateLimiter struct {
	checker LimitChecker
	logger  *zap.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// ProblemDetails is an RFC 9457 compatible error payload.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(checker LimitChecker, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
}

// WithMetrics records denials on the provided collectors.
func (rl *RateLimiter) WithMetrics(metrics *telemetry.Metrics) *RateLimiter {
	rl.metrics = metrics
	return rl
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// Limit enforces the provided rules in order. Every rule must admit the
// request; the strictest decision drives the X-RateLimit response headers.
func (rl *RateLimiter) Limit(rules ...Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.checker == nil || len(rules) == 0 {
			c.Next()
			return
		}

		clientID := ClientAddress(c)
		var strictest *decisionWithPolicy

		for _, rule := range rules {
			decision, err := rl.checker.Check(c.Request.Context(), rule.Endpoint, clientID)
			if err != nil {
				if rule.FailOpen {
					rl.logger.Warn("rate limit check failed, admitting",
						zap.String("endpoint", rule.Endpoint),
						zap.Error(err),
					)
					continue
				}

				rl.logger.Error("rate limit check failed",
					zap.String("endpoint", rule.Endpoint),
					zap.Error(err),
				)
				rl.respondUnavailable(c)
				return
			}

			res := decisionWithPolicy{decision: decision, policy: rl.checker.Policy(rule.Endpoint)}
			if strictest == nil || res.stricterThan(*strictest) {
				strictest = &res
			}

			if !decision.Allowed {
				if rl.metrics != nil {
					rl.metrics.RateLimitDenials.WithLabelValues(rule.Endpoint).Inc()
				}
				rl.applyHeaders(c, res)
				rl.respondRateLimited(c, decision)
				return
			}
		}

		if strictest != nil {
			rl.applyHeaders(c, *strictest)
		}

		c.Next()
	}
}

type decisionWithPolicy struct {
	decision domain.RateLimitDecision
	policy   domain.RateLimitPolicy
}

func (d decisionWithPolicy) stricterThan(other decisionWithPolicy) bool {
	if !d.decision.Allowed && other.decision.Allowed {
		return true
	}
	if d.decision.Allowed == other.decision.Allowed {
		if d.decision.Remaining < other.decision.Remaining {
			return true
		}
		if d.decision.Remaining == other.decision.Remaining && d.decision.ResetAt.Before(other.decision.ResetAt) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) applyHeaders(c *gin.Context, res decisionWithPolicy) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.policy.MaxRequests))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.decision.Remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.decision.ResetAt.Unix(), 10))

	if !res.decision.Allowed {
		headers.Set("Retry-After", strconv.Itoa(rl.retrySeconds(res.decision)))
	}
}

func (rl *RateLimiter) retrySeconds(decision domain.RateLimitDecision) int {
	seconds := int(math.Ceil(decision.ResetAt.Sub(rl.now()).Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, decision domain.RateLimitDecision) {
	retrySeconds := rl.retrySeconds(decision)

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", retrySeconds),
		Instance:   instancePath(c),
		RetryAfter: retrySeconds,
	})
}

func (rl *RateLimiter) respondUnavailable(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:       quotaUnavailableProblemType,
		Title:      quotaUnavailableProblemTitle,
		Status:     http.StatusServiceUnavailable,
		Detail:     "The request quota could not be verified. Retry shortly.",
		Instance:   instancePath(c),
		RetryAfter: 1,
	})
}

func instancePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
