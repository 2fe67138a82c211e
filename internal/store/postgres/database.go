// Package postgres persists customer KYC context to Postgres via pgx, the
// way the teacher's repositories package persists accounts and risk scores.
// Transactions and risk profiles are not stored here.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/aml-risk-engine/configs"
)

// Database wraps a pgx connection pool with the lifecycle helpers every
// repository in this package needs.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDatabase opens and pings a connection pool built from cfg.
func NewDatabase(cfg configs.DatabaseConfig) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Msg("connected to postgres")
	return &Database{Pool: pool}, nil
}

// Close releases the pool.
func (d *Database) Close() {
	d.Pool.Close()
}

// WithTransaction runs fn inside a transaction, rolling back on panic or
// error and committing otherwise.
func (d *Database) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HealthCheck pings the pool, used by the /health endpoint.
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Stats exposes pool statistics for metrics endpoints.
func (d *Database) Stats() *pgxpool.Stat {
	return d.Pool.Stat()
}
