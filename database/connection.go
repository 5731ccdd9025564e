package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the pgx pool shared by every repository. Transactions opened on
// it feed the unit of work.
type DB struct {
	*pgxpool.Pool
}

// PoolSettings sizes the shared pool. Zero values keep the pgx defaults.
type PoolSettings struct {
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

// NewConnection opens the pool with the given sizing and verifies the
// database is reachable before handing it out
func NewConnection(ctx context.Context, databaseURL string, settings PoolSettings) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if settings.MaxConns > 0 {
		poolConfig.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		poolConfig.MinConns = settings.MinConns
	}
	if settings.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = settings.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"host":     poolConfig.ConnConfig.Host,
		"database": poolConfig.ConnConfig.Database,
		"maxConns": poolConfig.MaxConns,
	}).Info("Database pool established")

	return &DB{Pool: pool}, nil
}

// Close closes the pool and waits for checked-out connections to return
func (db *DB) Close() {
	db.Pool.Close()
}
