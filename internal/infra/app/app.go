package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/clickhouse"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/config"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/database"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/logger"
	redisinfra "github.com/sepehr-mohseni/site-engagement/internal/infra/redis"
	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
	clickhouserepo "github.com/sepehr-mohseni/site-engagement/internal/repository/clickhouse"
	"github.com/sepehr-mohseni/site-engagement/internal/repository/postgres"
	redisrepo "github.com/sepehr-mohseni/site-engagement/internal/repository/redis"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/middleware"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/routes"
	"github.com/sepehr-mohseni/site-engagement/internal/usecase"
)

// App wires configuration, storage, services and the HTTP server together.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	click  *clickhouse.Client
	server *http.Server
}

// New builds the application from configuration. Connections are established
// eagerly so a misconfigured deployment fails at startup, not on first hit.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Postgres.MigrateOnStart {
		if err := database.MigrateUp(cfg.Postgres, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &App{cfg: cfg, log: log, pool: pool}

	repos := postgres.NewRepositories(pool)

	var limitStore port.RateLimitStore = repos.RateLimits
	if cfg.RateLimit.Backend == config.BackendRedis {
		client, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			a.closeConnections()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		limitStore = redisrepo.NewRateLimitRepository(client.Client(), redisrepo.FixedWindowConfig{
			KeyPrefix: cfg.RateLimit.KeyPrefix,
		})
	}

	var viewStore port.PageViewRepository = repos.PageViews
	if cfg.Analytics.Backend == config.BackendClickHouse {
		client, err := clickhouse.NewClient(cfg.ClickHouse, log)
		if err != nil {
			a.closeConnections()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		a.click = client
		viewStore = clickhouserepo.NewPageViewRepository(client.Conn())
	}

	limiter := usecase.NewLimiter(limitStore, log)
	analytics := usecase.NewAnalyticsService(viewStore, log).
		WithDedupHorizon(cfg.Analytics.DedupHorizon)
	engagement := usecase.NewEngagementService(repos.Engagement, analytics, log)
	contact := usecase.NewContactService(repos.Contacts, log)

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		a.closeConnections()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(limiter, log).WithMetrics(metrics)

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		HTTPMetrics: httpMetrics,
		Services: routes.ServiceSet{
			Analytics:  analytics,
			Engagement: engagement,
			Contact:    contact,
		},
		Database: pool,
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}

	engine := routes.Register(deps)

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeConnections()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.closeConnections()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (a *App) closeConnections() {
	if a.click != nil {
		if err := a.click.Close(); err != nil {
			a.log.Warn("close clickhouse", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
