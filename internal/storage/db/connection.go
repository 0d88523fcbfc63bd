// Package db implements the relational persistence layer over jackc/pgx/v5 and
// pgxpool, adapted from the teacher's connection-pool setup and raw-SQL
// repository style.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Connection wraps a pgxpool.Pool — the single source of truth for the
// persistent store (§5 shared-resource policy).
type Connection struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	config *config.DatabaseConfig
}

// NewConnection opens and health-checks a pooled connection.
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*Connection, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod) * time.Second

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info("database connection established")

	return &Connection{pool: pool, logger: log, config: cfg}, nil
}

func (c *Connection) Close() {
	c.logger.Info("closing database connection")
	c.pool.Close()
}

func (c *Connection) GetPool() *pgxpool.Pool { return c.pool }

func (c *Connection) Begin(ctx context.Context) (pgx.Tx, error) { return c.pool.Begin(ctx) }

func (c *Connection) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, sql, args...)
}

func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return c.pool.Query(ctx, sql, args...)
}

func (c *Connection) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return c.pool.QueryRow(ctx, sql, args...)
}

// OptimizeIndexes re-analyzes the database to refresh planner statistics.
func (c *Connection) OptimizeIndexes(ctx context.Context) error {
	c.logger.Info("analyzing database for planner statistics")
	if _, err := c.pool.Exec(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("running ANALYZE: %w", err)
	}
	return nil
}
