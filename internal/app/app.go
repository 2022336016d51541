package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fixture-ingestion/internal/config"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/riskibarqy/fixture-ingestion/internal/infrastructure/cache/rediscache"
	repocache "github.com/riskibarqy/fixture-ingestion/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fixture-ingestion/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-ingestion/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fixture-ingestion/internal/infrastructure/stream/redisstream"
	"github.com/riskibarqy/fixture-ingestion/internal/interfaces/httpapi"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/scheduler"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

// App owns the HTTP server, the ingestion scheduler and the connections
// they share.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler
	Ingestion *usecase.IngestionService

	db     *sqlx.DB
	redis  redis.UniversalClient
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}

	repo, err := a.buildRepository(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.RedisRequired() {
		client, err := openRedis(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = client
	}

	adapters := buildAdapters(cfg, logger)
	a.Ingestion = usecase.NewIngestionService(
		repo,
		adapters,
		a.buildFetchCache(cfg),
		a.buildPublisher(cfg),
		usecase.IngestionServiceConfig{
			Concurrency:     cfg.IngestConcurrency,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		logger.With("component", "ingestion"),
	)
	fixtureService := usecase.NewFixtureService(repo)

	handler := httpapi.NewHandler(a.Ingestion, fixtureService, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.IngestScheduleEnabled {
		sched, err := scheduler.New(a.Ingestion, scheduler.Config{
			Schedule:   cfg.IngestSchedule,
			RunTimeout: cfg.IngestRunTimeout,
			RunOnStart: cfg.IngestRunOnStart,
		}, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("build scheduler: %w", err)
		}
		a.Scheduler = sched
	}

	logger.Info("app initialized",
		"store_driver", cfg.StoreDriver,
		"providers", providerNames(adapters),
		"fetch_cache", fetchCacheMode(cfg),
		"redis_stream", cfg.RedisStreamEnabled,
		"schedule", scheduleMode(cfg),
	)

	return a, nil
}

func (a *App) buildRepository(ctx context.Context, cfg config.Config) (fixture.Repository, error) {
	var repo fixture.Repository
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		repo = memory.NewFixtureRepository()
	default:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		repo = postgres.NewFixtureRepository(db)
	}

	if cfg.ReadCacheEnabled {
		repo = repocache.NewFixtureRepository(repo, cfg.ReadCacheTTL)
	}
	return repo, nil
}

func (a *App) buildFetchCache(cfg config.Config) usecase.FetchCache {
	if !cfg.FetchCacheEnabled {
		return nil
	}
	if cfg.FetchCacheBackend == config.FetchCacheBackendRedis && a.redis != nil {
		return rediscache.NewFetchCache(a.redis, cfg.FetchCacheTTL, cfg.RedisKeyPrefix)
	}
	return usecase.NewMemoryFetchCache(cfg.FetchCacheTTL)
}

func (a *App) buildPublisher(cfg config.Config) usecase.FixtureEventPublisher {
	if !cfg.RedisStreamEnabled || a.redis == nil {
		return nil
	}
	return redisstream.NewPublisher(a.redis, cfg.RedisStreamKey)
}

// Start launches the scheduler. The HTTP server is started by the caller.
func (a *App) Start() {
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
}

// Shutdown stops the scheduler first so no new run starts while the HTTP
// server drains, then releases the store and Redis connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
		a.db = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		a.redis = nil
	}
	return errors.Join(errs...)
}

func fetchCacheMode(cfg config.Config) string {
	if !cfg.FetchCacheEnabled {
		return "disabled"
	}
	return cfg.FetchCacheBackend
}

func scheduleMode(cfg config.Config) string {
	if !cfg.IngestScheduleEnabled {
		return "disabled"
	}
	return cfg.IngestSchedule
}
