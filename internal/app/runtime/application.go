// Package runtime wires the application together and manages its lifecycle:
// wait for dependencies, run migrations, then serve.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/goback-io/goback/internal/api/httpserver"
	"github.com/goback-io/goback/internal/api/router"
	"github.com/goback-io/goback/internal/config"
	"github.com/goback-io/goback/internal/database"
	"github.com/goback-io/goback/internal/logging"
	"github.com/goback-io/goback/internal/middleware"
	authsvc "github.com/goback-io/goback/internal/services/auth"
	"github.com/goback-io/goback/internal/services/health"
	userssvc "github.com/goback-io/goback/internal/services/users"
	pgstore "github.com/goback-io/goback/internal/storage/postgres"
)

const (
	dependencyAttempts = 30
	dependencyInterval = 2 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Options tunes application construction.
type Options struct {
	// MigrationsURL is the migration source, e.g. "file://migrations".
	// Empty skips the migration step (the entrypoint may run it separately).
	MigrationsURL string
}

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	httpServer *httpserver.Server
	db         *sqlx.DB
	redis      *redis.Client
}

// NewApplication constructs the application: resolve settings, connect to
// the backing stores (waiting for them to become healthy), optionally apply
// migrations, and build the HTTP stack.
func NewApplication(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newWithConfig(ctx, cfg, opts)
}

func newWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	log := logging.NewFromConfig("goback", logging.Config{
		Level: cfg.Logging.Level,
		Console: logging.ConsoleSink{
			Enabled:  cfg.Logging.Console.Enabled,
			Colorize: cfg.Logging.Console.Colorize,
		},
		File: logging.FileSink{
			Enabled:     cfg.Logging.File.Enabled,
			Path:        cfg.Logging.File.Path,
			Rotation:    cfg.Logging.File.Rotation,
			Retention:   cfg.Logging.File.Retention,
			Compression: cfg.Logging.File.Compression,
		},
		JSON: logging.FileSink{
			Enabled:     cfg.Logging.JSON.Enabled,
			Path:        cfg.Logging.JSON.Path,
			Rotation:    cfg.Logging.JSON.Rotation,
			Retention:   cfg.Logging.JSON.Retention,
			Compression: cfg.Logging.JSON.Compression,
		},
	})

	log.Info("waiting for dependencies")
	db, err := database.WaitForPostgres(ctx, cfg, dependencyAttempts, dependencyInterval)
	if err != nil {
		return nil, fmt.Errorf("postgres unavailable: %w", err)
	}
	log.Info("postgres connected")

	redisClient, err := database.WaitForRedis(ctx, cfg, dependencyAttempts, dependencyInterval)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}
	log.Info("redis connected")

	if opts.MigrationsURL != "" {
		if err := RunMigrations(cfg, opts.MigrationsURL, log); err != nil {
			db.Close()
			redisClient.Close()
			return nil, err
		}
	}

	userStore := pgstore.New(db)
	usersService := userssvc.NewService(userStore)
	authService := authsvc.NewService(usersService, cfg.Auth)
	healthService := health.NewService(map[string]health.Pinger{
		"postgres": health.PingerFunc(func(ctx context.Context) error {
			return db.PingContext(ctx)
		}),
		"redis": health.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	handler := router.New(router.Options{
		Logger:      log,
		Health:      healthService,
		Users:       usersService,
		Auth:        authService,
		RateLimiter: middleware.NewRateLimiter(redisClient, log),
	})

	return &Application{
		cfg:        cfg,
		log:        log,
		httpServer: httpserver.New(cfg.ListenAddr(), log, handler),
		db:         db,
		redis:      redisClient,
	}, nil
}

// RunMigrations brings the schema to the latest revision. A failure is fatal
// and the caller must not serve.
func RunMigrations(cfg *config.Config, sourceURL string, log *logging.Logger) error {
	migrator, err := database.NewMigrator(sourceURL, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		return err
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema is dirty at revision %d", version)
	}
	log.Infof("schema at revision %d", version)
	return nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and closes the store handles.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
	}
	return nil
}

// Config exposes the resolved configuration.
func (a *Application) Config() *config.Config { return a.cfg }
