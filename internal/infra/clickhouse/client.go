package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/infra/config"
)

// Client wraps a native-protocol ClickHouse connection.
type Client struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewClient opens a ClickHouse connection and verifies it with a ping.
func NewClient(cfg config.ClickHouseSettings, logger *zap.Logger) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	logger.Info("clickhouse connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return &Client{conn: conn, logger: logger}, nil
}

// Conn returns the underlying connection for repositories.
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// HealthCheck verifies ClickHouse connectivity.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse health check failed: %w", err)
	}
	return nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.logger.Info("closing clickhouse connection")
	return c.conn.Close()
}
