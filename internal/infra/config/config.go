package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend selectors.
const (
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	BackendClickHouse = "clickhouse"
)

type AppConfig struct {
	App        AppSettings        `mapstructure:"app"`
	Postgres   PostgresSettings   `mapstructure:"postgres"`
	Redis      RedisSettings      `mapstructure:"redis"`
	ClickHouse ClickHouseSettings `mapstructure:"clickhouse"`
	RateLimit  RateLimitSettings  `mapstructure:"rate_limit"`
	Analytics  AnalyticsSettings  `mapstructure:"analytics"`
	HTTP       HTTPSettings       `mapstructure:"http"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// RedisSettings configures the optional Redis rate-limit backend.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// ClickHouseSettings configures the optional ClickHouse page-view backend.
type ClickHouseSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RateLimitSettings selects the window-counter backend. The per-endpoint
// budgets themselves are static.
type RateLimitSettings struct {
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AnalyticsSettings selects the page-view log backend and the dedup horizon.
type AnalyticsSettings struct {
	Backend      string        `mapstructure:"backend"`
	DedupHorizon time.Duration `mapstructure:"dedup_horizon"`
}

type HTTPSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SITE")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate_on_start",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"clickhouse.host",
		"clickhouse.port",
		"clickhouse.database",
		"clickhouse.username",
		"clickhouse.password",
		"rate_limit.backend",
		"rate_limit.key_prefix",
		"analytics.backend",
		"analytics.dedup_horizon",
		"http.allowed_origins",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "site-engagement")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "site")
	v.SetDefault("postgres.password", "site_password")
	v.SetDefault("postgres.database", "site")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.migrate_on_start", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("clickhouse.host", "localhost")
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.database", "site")

	v.SetDefault("rate_limit.backend", BackendPostgres)
	v.SetDefault("rate_limit.key_prefix", "site:rate-limit")

	v.SetDefault("analytics.backend", BackendPostgres)
	v.SetDefault("analytics.dedup_horizon", 2*time.Hour)

	v.SetDefault("http.allowed_origins", []string{"*"})
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func validate(cfg *AppConfig) error {
	switch cfg.RateLimit.Backend {
	case BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unsupported rate_limit backend %q", cfg.RateLimit.Backend)
	}

	switch cfg.Analytics.Backend {
	case BackendPostgres, BackendClickHouse:
	default:
		return fmt.Errorf("unsupported analytics backend %q", cfg.Analytics.Backend)
	}

	return nil
}
