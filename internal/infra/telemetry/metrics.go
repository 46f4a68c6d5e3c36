package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "site"

// Metrics groups the engagement-domain Prometheus collectors. HTTP-level
// instrumentation lives in the transport middleware; these count the domain
// events themselves.
type Metrics struct {
	PageViews          *prometheus.CounterVec
	LikeToggles        *prometheus.CounterVec
	Shares             *prometheus.CounterVec
	RateLimitDenials   *prometheus.CounterVec
	ContactSubmissions *prometheus.CounterVec
}

// NewMetrics registers the domain collectors with the provided registerer.
// Passing nil registers against the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PageViews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_views_total",
			Help:      "Page-view beacons processed, partitioned by uniqueness.",
		}, []string{"unique"}),
		LikeToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "like_toggles_total",
			Help:      "Like toggles applied, partitioned by resulting state.",
		}, []string{"state"}),
		Shares: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_total",
			Help:      "Share events recorded, partitioned by platform.",
		}, []string{"platform"}),
		RateLimitDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_denials_total",
			Help:      "Requests denied by the rate limiter, partitioned by endpoint.",
		}, []string{"endpoint"}),
		ContactSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Accepted contact submissions, partitioned by spam flag.",
		}, []string{"spam"}),
	}
}
