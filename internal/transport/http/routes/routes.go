package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/config"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/handlers"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/middleware"
	"github.com/sepehr-mohseni/site-engagement/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Analytics  *usecase.AnalyticsService
	Engagement *usecase.EngagementService
	Contact    *usecase.ContactService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *telemetry.Metrics
	HTTPMetrics *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.HTTP.AllowedOrigins))
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analyticsHandler := handlers.NewAnalyticsHandler(deps.Services.Analytics, deps.Metrics, deps.Logger)
	engagementHandler := handlers.NewEngagementHandler(deps.Services.Engagement, deps.Metrics, deps.Logger)
	contactHandler := handlers.NewContactHandler(deps.Services.Contact, deps.Metrics, deps.Logger)

	limit := func(rules ...middleware.Rule) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return deps.RateLimiter.Limit(rules...)
	}

	api := r.Group("/api")
	{
		// The beacon fails open: dropping an analytics event beats blocking
		// page rendering on a storage outage.
		api.POST("/analytics", limit(
			middleware.Rule{Endpoint: domain.EndpointAnalytics, FailOpen: true},
			middleware.Rule{Endpoint: domain.EndpointGlobal, FailOpen: true},
		), analyticsHandler.TrackPageView)

		api.GET("/stats/page", analyticsHandler.PageStats)

		blog := api.Group("/blog/:slug")
		{
			blog.GET("/engagement", engagementHandler.GetEngagement)
			blog.GET("/like", engagementHandler.GetLike)
			blog.POST("/like", limit(middleware.Rule{Endpoint: domain.EndpointLike}), engagementHandler.ToggleLike)
			blog.GET("/share", engagementHandler.GetShares)
			blog.POST("/share", limit(middleware.Rule{Endpoint: domain.EndpointShare}), engagementHandler.TrackShare)
		}

		api.POST("/contact", limit(middleware.Rule{Endpoint: domain.EndpointContact}), contactHandler.Submit)
	}

	return r
}
