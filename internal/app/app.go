package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gorm.io/gorm"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	"github.com/echobeat/catalog-seeder/internal/clients/jamendo"
	"github.com/echobeat/catalog-seeder/internal/clients/redis"
	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/db"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
	"github.com/echobeat/catalog-seeder/internal/observability"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/httpx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

const serviceName = "catalog-seeder"

// Version is set at build time with -ldflags.
var Version = "dev"

// Options select which optional collaborators a command needs. Anything not
// requested is left nil and never dialed.
type Options struct {
	ConfigPath  string
	NeedFeed    bool
	NeedStorage bool
	// Exclusive takes the run lock so two writers never interleave positions.
	Exclusive bool
	// Migrate runs AutoMigrate before anything else touches the store.
	Migrate bool
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *db.Store
	DB       *gorm.DB
	Repos    repos.Set
	Services catalog.Services
	Pipeline *pipeline.Pipeline
	Metrics  *observability.Metrics

	blobs        gcp.BlobStore
	cursor       redis.CursorStore
	lock         *flock.Flock
	shutdownOtel func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	logMode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log, opts.ConfigPath)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if cfg.LogMode != logMode {
		if relog, err := logger.New(cfg.LogMode); err == nil {
			log.Sync()
			log = relog
		}
	}

	a := &App{Log: log, Cfg: cfg, Metrics: observability.NewMetrics()}
	if err := a.init(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg := a.Cfg
	log := a.Log

	if opts.Exclusive {
		a.lock = flock.New(cfg.LockFile)
		ok, err := a.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			a.lock = nil
			return types.ConfigurationError("app.lock", fmt.Sprintf("another catalog run holds %s", cfg.LockFile))
		}
		log.Debug("Run lock acquired", "path", cfg.LockFile)
	}

	a.shutdownOtel = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: serviceName,
		Environment: cfg.Otel.Environment,
		Version:     Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	store, err := db.NewStore(ctx, log, db.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		SlowThreshold:   cfg.Database.SlowThreshold,
	})
	if err != nil {
		return fmt.Errorf("init catalog store: %w", err)
	}
	a.Store = store
	a.DB = store.DB()
	if opts.Migrate {
		if err := store.AutoMigrateAll(); err != nil {
			return fmt.Errorf("catalog automigrate: %w", err)
		}
	}

	a.Repos = repos.NewSet(a.DB, log)
	hooks := aggregates.CombineHooks(aggregates.NewLogHooks(log), a.Metrics)
	a.Services = catalog.NewServices(aggregates.BaseDeps{DB: a.DB, Log: log, Hooks: hooks}, a.Repos, cfg.Catalog)

	deps := pipeline.Deps{
		DB:       a.DB,
		Log:      log,
		Hooks:    hooks,
		Services: a.Services,
		Repos:    a.Repos,
		Metrics:  a.Metrics,
	}

	if opts.NeedFeed {
		feed, err := jamendo.New(log, cfg.Feed.ClientID, cfg.Feed.BaseURL,
			jamendo.WithHTTPClient(&http.Client{Timeout: cfg.Feed.Timeout}),
			jamendo.WithLicense(cfg.Feed.License),
		)
		if err != nil {
			return err
		}
		deps.Feed = feed
		deps.Fetcher = httpx.NewFetcher(log,
			httpx.WithTimeout(cfg.Fetch.Timeout),
			httpx.WithMaxBytes(cfg.Fetch.MaxBytes),
			httpx.WithUserAgent(cfg.Fetch.UserAgent),
		)
		a.cursor, err = a.openCursorStore(ctx)
		if err != nil {
			return err
		}
		deps.Cursor = a.cursor
	}

	if opts.NeedStorage {
		blobs, err := resolveBlobStore(ctx, log, cfg.ObjectStorage())
		if err != nil {
			return err
		}
		a.blobs = blobs
		deps.Blobs = blobs
	}

	a.Pipeline = pipeline.New(deps, cfg.PipelineConfig())
	return nil
}

// openCursorStore falls back to an in-process cursor when Redis is not
// configured; a configured but unreachable Redis is an error.
func (a *App) openCursorStore(ctx context.Context) (redis.CursorStore, error) {
	if strings.TrimSpace(a.Cfg.Redis.Addr) == "" {
		a.Log.Warn("REDIS_ADDR not set, feed cursor will not survive this process")
		return redis.NewMemoryCursorStore(), nil
	}
	store, err := redis.NewCursorStore(ctx, a.Log, redis.Config{
		Addr:     a.Cfg.Redis.Addr,
		Password: a.Cfg.Redis.Password,
		DB:       a.Cfg.Redis.DB,
		Prefix:   a.Cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("init feed cursor store: %w", err)
	}
	return store, nil
}

// ServeMetrics exposes the metrics registry until ctx ends. It is a no-op
// without METRICS_ADDR.
func (a *App) ServeMetrics(ctx context.Context) {
	if a == nil {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Metrics != nil && a.Cfg.Metrics.File != "" {
		if err := a.Metrics.WriteFile(a.Cfg.Metrics.File); err != nil && a.Log != nil {
			a.Log.Warn("Writing metrics file failed", "path", a.Cfg.Metrics.File, "error", err)
		}
	}
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.shutdownOtel(ctx)
		cancel()
	}
	if a.blobs != nil {
		_ = a.blobs.Close()
	}
	if a.cursor != nil {
		_ = a.cursor.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil && a.Log != nil {
			a.Log.Warn("Releasing run lock failed", "path", a.Cfg.LockFile, "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
