package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/vverify-server/database"
	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.Pinger = (*Connection)(nil)

const (
	uniqueViolationCode = "23505"
	healthCheckPeriod   = 30 * time.Second
)

// Connection is the shared pgx pool behind every repository.
type Connection struct {
	*pgxpool.Pool
}

// NewConection opens a pool, checks that the server answers and applies pending migrations.
func NewConection(ctx context.Context, cfg config.Database) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		conf.MaxConns = cfg.MaxConns
	}
	conf.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := database.Migrate(ctx, cfg.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{Pool: pool}, nil
}

func (c *Connection) Close() error {
	if c.Pool != nil {
		c.Pool.Close()
	}
	return nil
}

// Ping backs the readiness endpoint and the gRPC health monitor.
func (c *Connection) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return errors.New("connection pool is nil")
	}
	return c.Pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
