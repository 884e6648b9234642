// Package postgres opens the SQL store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/store/sqlstore"
)

// Config tunes the connection pool. Zero values keep pgx defaults.
type Config struct {
	DSN      string
	MaxConns int32
}

// Store is the SQL store bound to a pgx pool.
type Store struct {
	*sqlstore.Store
	pool *pgxpool.Pool
}

// Open connects, verifies the connection, and migrates the schema.
func Open(ctx context.Context, cfg Config, opts ...sqlstore.Option) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{
		Store: sqlstore.New(stdlib.OpenDBFromPool(pool), sqlstore.Postgres, opts...),
		pool:  pool,
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks the pool directly.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the database handle and the pool.
func (s *Store) Close() error {
	err := s.Store.Close()
	s.pool.Close()
	return err
}
