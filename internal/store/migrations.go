package store

import (
	"context"
	"fmt"
	"time"

	"padws/internal/config"
	"padws/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// migrations is the ordered schema history. Entries are append-only;
// each runs at most once, tracked in schema_migrations.
var migrations = []string{
	// 1: base schema
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		name TEXT,
		given_name TEXT,
		family_name TEXT,
		roles TEXT[] NOT NULL DEFAULT '{}',
		open_pads UUID[] NOT NULL DEFAULT '{}',
		last_selected_pad UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 2: pads
	`CREATE TABLE IF NOT EXISTS pads (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		display_name TEXT NOT NULL DEFAULT 'Untitled',
		data JSONB NOT NULL DEFAULT '{}',
		sharing_policy TEXT NOT NULL DEFAULT 'private',
		whitelisted_users UUID[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 3: pad templates
	`CREATE TABLE IF NOT EXISTS template_pads (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT 'Untitled',
		data JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 4: owner listing index
	`CREATE INDEX IF NOT EXISTS idx_pads_owner_id ON pads(owner_id)`,
}

// Migrate applies all pending migrations, each in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("starting migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, migrations[i]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
		logging.Info("Store", "Applied migration %d/%d", version, len(migrations))
	}

	return nil
}

// migrationLockKey is the Redis key serializing migrations across
// replicas.
const migrationLockKey = "padws:migrations:lock"

// RunMigrationsWithLock runs Migrate under a Redis lock so that with
// multiple replicas starting at once, exactly one migrates while the
// others wait for it to finish. Waiters re-run Migrate afterwards,
// which is a no-op once the schema is current.
func RunMigrationsWithLock(ctx context.Context, rdb *redis.Client, pool *pgxpool.Pool, cfg config.RedisConfig) error {
	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Minute
	}
	maxWait := cfg.LockMaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Minute
	}

	deadline := time.Now().Add(maxWait)
	for {
		acquired, err := rdb.SetNX(ctx, migrationLockKey, "1", lockTimeout).Result()
		if err != nil {
			return fmt.Errorf("acquiring migration lock: %w", err)
		}
		if acquired {
			defer func() {
				if err := rdb.Del(context.WithoutCancel(ctx), migrationLockKey).Err(); err != nil {
					logging.Warn("Store", "Failed to release migration lock: %v", err)
				}
			}()
			return Migrate(ctx, pool)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %v waiting for migration lock", maxWait)
		}
		logging.Debug("Store", "Migration lock held elsewhere, waiting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
