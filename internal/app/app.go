// Package app wires configuration into the query pipeline shared by the
// HTTP, MCP and CLI entrypoints.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/catalog"
	"github.com/cbioportal-query-assistant/internal/database"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/health"
	"github.com/cbioportal-query-assistant/internal/interpreter"
	"github.com/cbioportal-query-assistant/internal/service"
	"github.com/cbioportal-query-assistant/pkg/external"
)

// Version is reported by the HTTP, MCP and health surfaces.
const Version = "1.0.0"

// App holds the constructed components. Fields may be replaced in tests.
type App struct {
	Config      *domain.Config
	Logger      *logrus.Logger
	DB          *database.DB
	Cache       *external.TieredCache
	Portal      *external.ResilientClient
	Catalog     *catalog.Catalog
	Validator   *catalog.Validator
	Provider    domain.InterpreterProvider
	Interpreter *interpreter.Interpreter
	Queries     *service.QueryService
	Studies     *service.StudyService
	Health      *health.Checker

	closers []io.Closer
}

// New builds every component from configuration and loads the catalog.
func New(ctx context.Context, manager domain.ConfigManager, logger *logrus.Logger) (*App, error) {
	cfg := manager.GetConfig()
	a := &App{Config: cfg, Logger: logger}

	var sqlDB *sql.DB
	if strings.EqualFold(cfg.Catalog.Store, domain.StorePostgres) {
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		sqlDB = db.SQL()

		if cfg.Database.MigrationsPath != "" {
			if err := database.MigrateUp(ctx, manager.GetDatabaseConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	}

	store, err := catalog.NewStore(cfg.Catalog, sqlDB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create catalog store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	cache, err := external.NewTieredCache(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis cache unavailable, using memory tier only")
		cache = external.NewTieredCacheWithClient(nil, cfg.Cache, logger)
	}
	a.Cache = cache
	a.closers = append(a.closers, cache)

	portal := external.NewCBioPortalClient(cfg.CBioPortal)
	a.Portal = external.NewResilientClient(portal, cache, cfg.CBioPortal.CircuitBreaker, logger)

	a.Catalog = catalog.New(
		catalog.WithStore(store),
		catalog.WithRemote(a.Portal),
		catalog.WithLogger(logger),
		catalog.WithMaxGenes(cfg.Catalog.MaxGenes),
	)
	if source := a.Catalog.Load(ctx); cfg.Catalog.RefreshOnStart && source != catalog.SourceRemote {
		if err := a.Catalog.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("Catalog refresh on start failed")
		}
	}
	a.Validator = catalog.NewValidator(a.Catalog)

	provider, err := interpreter.NewProvider(cfg.Interpreter)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create interpreter provider: %w", err)
	}
	a.Provider = interpreter.NewResilientProvider(provider, cfg.Interpreter, logger)
	if !a.Provider.Configured() {
		logger.WithField("provider", a.Provider.Name()).Warn("Interpreter provider not configured, keyword fallback will be used")
	}

	normalizer, err := interpreter.NewNormalizer(logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}
	a.Interpreter = interpreter.New(a.Provider, normalizer, logger)

	a.Queries = service.NewQueryService(a.Interpreter, a.Validator, a.Portal, cfg.Query, cfg.CBioPortal.DefaultStudy, logger)
	a.Studies = service.NewStudyService(a.Portal)

	var db *sql.DB
	if a.DB != nil {
		db = a.DB.SQL()
	}
	a.Health = health.NewChecker(Version, cfg.CBioPortal.StatusTimeout, logger,
		health.CatalogCheck{Catalog: a.Catalog},
		health.InterpreterCheck{Provider: a.Provider},
		health.PortalCheck{Portal: a.Portal},
		health.CacheCheck{Cache: a.Cache},
		health.DatabaseCheck{DB: db, Schema: cfg.Database.MigrationsPath != ""},
	)

	logger.WithFields(logrus.Fields{
		"provider":       a.Provider.Name(),
		"catalog_source": a.Catalog.Source(),
		"catalog_genes":  a.Catalog.Size(),
		"redis":          a.Cache.HasRedis(),
		"catalog_store":  cfg.Catalog.Store,
	}).Info("Query pipeline initialized")

	return a, nil
}

// Close releases stores, cache connections and the database pool.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
	return firstErr
}
