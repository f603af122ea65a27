// Package app wires the department service from configuration: logger,
// store, read cache, service and HTTP router.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ammiranda/department_service/cache"
	"github.com/ammiranda/department_service/config"
	"github.com/ammiranda/department_service/handlers"
	"github.com/ammiranda/department_service/logging"
	"github.com/ammiranda/department_service/migrations"
	"github.com/ammiranda/department_service/repository"
	"github.com/ammiranda/department_service/service"
)

// ErrNoDatabase is returned by Database for the in-memory store
var ErrNoDatabase = errors.New("store driver has no SQL database")

// App holds the initialized components of one process
type App struct {
	Config  *config.ServiceConfig
	Logger  *slog.Logger
	Store   repository.Store
	Cache   cache.CacheProvider
	Service *service.DepartmentService
	Router  *gin.Engine
}

// New reads the service configuration from provider and initializes every
// component. Logs are written to w.
func New(ctx context.Context, provider config.Provider, w io.Writer) (*App, error) {
	cfg, err := config.GetServiceConfig(ctx, provider)
	if err != nil {
		return nil, err
	}
	logger := logging.New(w, cfg.LogLevel, cfg.Environment)

	store, err := newStore(ctx, cfg, provider)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.StoreDriver, err)
	}

	c, err := cache.New(ctx, cfg)
	if err != nil {
		store.Cleanup(ctx)
		return nil, err
	}

	svc := service.New(store,
		service.WithCache(c),
		service.WithLogger(logger),
		service.WithVerification(cfg.VerifyInvariants),
	)

	if cfg.Environment != config.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("department service initialized",
		slog.String("store", cfg.StoreDriver),
		slog.String("cache", cfg.CacheProvider),
		slog.Bool("verify_invariants", cfg.VerifyInvariants),
		slog.String("environment", string(cfg.Environment)),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Cache:   c,
		Service: svc,
		Router:  handlers.NewRouter(svc, logger),
	}, nil
}

func newStore(ctx context.Context, cfg *config.ServiceConfig, provider config.Provider) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo, err := repository.NewPostgresRepository(ctx, provider)
		if err != nil {
			return nil, fmt.Errorf("failed to create repository: %w", err)
		}
		return repo, nil
	case config.StoreSQLite:
		return repository.NewSQLiteRepository(cfg.SQLitePath), nil
	case config.StoreMemory:
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Database returns the SQL connection of the store and its migration dialect
func (a *App) Database() (*sql.DB, string, error) {
	switch repo := a.Store.(type) {
	case *repository.PostgresRepository:
		return repo.DB(), migrations.Postgres, nil
	case *repository.SQLiteRepository:
		return repo.DB(), migrations.SQLite, nil
	default:
		return nil, "", ErrNoDatabase
	}
}

// Close releases the cache and the store
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if closer, ok := a.Cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, a.Store.Cleanup(ctx))
	return errors.Join(errs...)
}
