// Package store persists users, pads, and pad templates in Postgres.
// All access goes through pgx; the DB interface exists so tests can
// substitute a fake for the pool.
package store

import (
	"context"
	"fmt"

	"padws/internal/config"
	"padws/pkg/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect opens a pgx connection pool against the configured database
// and verifies it with a ping.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
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
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	logging.Info("Store", "Connected to postgres at %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return pool, nil
}

// Store bundles the per-entity repositories over one database handle.
type Store struct {
	Users        *Users
	Pads         *Pads
	TemplatePads *TemplatePads
}

// New creates a Store over the given database handle.
func New(db DB) *Store {
	return &Store{
		Users:        &Users{db: db},
		Pads:         &Pads{db: db},
		TemplatePads: &TemplatePads{db: db},
	}
}
