package domain

import "time"

// Rate-limited endpoint names. Policies are enumerated statically; anything
// else falls back to the global budget.
const (
	EndpointContact   = "contact"
	EndpointAnalytics = "analytics"
	EndpointLike      = "like"
	EndpointShare     = "share"
	EndpointGlobal    = "global"
)

// RateLimitPolicy bounds the number of requests admitted inside a fixed window.
type RateLimitPolicy struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultRateLimitPolicies returns the static per-endpoint budgets.
func DefaultRateLimitPolicies() map[string]RateLimitPolicy {
	return map[string]RateLimitPolicy{
		EndpointContact:   {Window: time.Hour, MaxRequests: 3},
		EndpointAnalytics: {Window: time.Second, MaxRequests: 10},
		EndpointLike:      {Window: time.Minute, MaxRequests: 10},
		EndpointShare:     {Window: time.Minute, MaxRequests: 20},
		EndpointGlobal:    {Window: time.Minute, MaxRequests: 100},
	}
}

// RateLimitWindow mirrors the persisted fixed-window counter for one
// (client identifier, endpoint) pair. At most one live row exists per pair;
// the row is live while now - WindowStart < the endpoint's window duration.
type RateLimitWindow struct {
	Identifier  string
	Endpoint    string
	Count       int
	WindowStart time.Time
}

// RateLimitDecision is the outcome of a quota check. Denial is a first-class
// result, not an error; ResetAt tells the caller when the window rolls over.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}
