// Package app bootstraps and runs the padws server. It owns the
// two-phase lifecycle: NewApplication wires configuration, storage,
// the identity provider, and the workspace orchestrator client;
// Run serves HTTP and background sync until the context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"padws/internal/coder"
	"padws/internal/config"
	"padws/internal/oidc"
	"padws/internal/server"
	"padws/internal/session"
	"padws/internal/store"
	"padws/internal/templates"
	"padws/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Options controls bootstrap behavior, set from command-line flags.
type Options struct {
	// ConfigPath points at a config.yaml. Empty means defaults plus
	// environment variables only.
	ConfigPath string
	// Debug enables verbose logging.
	Debug bool
	// Silent suppresses all log output. Used by tests.
	Silent bool
}

// Application holds the wired components of a running padws instance.
type Application struct {
	cfg    config.Config
	pool   *pgxpool.Pool
	rdb    *redis.Client
	srv    *server.Server
	loader *templates.Loader
}

// NewApplication performs the bootstrap sequence: logging, config,
// Postgres pool, Redis client, migrations, OIDC discovery, Coder
// client, and the HTTP server. It fails fast on anything the server
// cannot run without; template sync problems only log.
func NewApplication(ctx context.Context, opts Options) (*Application, error) {
	logLevel := logging.LevelInfo
	if opts.Debug {
		logLevel = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stdout
	if opts.Silent {
		logOutput = io.Discard
	}
	logging.Init(logLevel, logOutput)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Info("Bootstrap", "Configuration loaded, public URL %s", cfg.Server.BaseURL())

	pool, err := store.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if err := store.RunMigrationsWithLock(ctx, rdb, pool, cfg.Redis); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	provider, err := oidc.New(ctx, cfg.OIDC)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to set up identity provider: %w", err)
	}

	st := store.New(pool)
	sessions := session.NewStore(rdb, cfg.Redis.SessionTTL)
	coderClient := coder.NewClient(cfg.Coder)

	loader := templates.NewLoader(cfg.Frontend.TemplatesDir, st.TemplatePads)
	if err := loader.SyncAll(ctx); err != nil {
		logging.Warn("Bootstrap", "Template sync failed: %v", err)
	}

	return &Application{
		cfg:    cfg,
		pool:   pool,
		rdb:    rdb,
		srv:    server.New(cfg, provider, sessions, st, coderClient),
		loader: loader,
	}, nil
}

// Run serves until ctx is canceled, then shuts the HTTP server down
// within the configured shutdown timeout.
func (a *Application) Run(ctx context.Context) error {
	httpServer := a.srv.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("Server", "Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.loader.Watch(gctx); err != nil {
			logging.Warn("Templates", "Directory watch stopped: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

// Migrate runs database migrations and exits, for deploy pipelines
// that migrate before rolling the server.
func Migrate(ctx context.Context, opts Options) error {
	logLevel := logging.LevelInfo
	if opts.Debug {
		logLevel = logging.LevelDebug
	}
	logging.Init(logLevel, os.Stdout)

	cfg, err := config.LoadForMigration(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pool, err := store.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	return store.Migrate(ctx, pool)
}

func (a *Application) close() {
	a.srv.Close()
	a.pool.Close()
	if err := a.rdb.Close(); err != nil {
		logging.Warn("Bootstrap", "Closing redis client: %v", err)
	}
}
