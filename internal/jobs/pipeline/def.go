// Package pipeline runs the batch entry points that seed and maintain the
// catalog: feed ingestion, the authorship and aggregate post-passes, genre
// seeding, cover backfills and genre playlists.
package pipeline

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	"github.com/echobeat/catalog-seeder/internal/clients/jamendo"
	"github.com/echobeat/catalog-seeder/internal/clients/redis"
	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	"github.com/echobeat/catalog-seeder/internal/observability"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/httpx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

const tracerName = "github.com/echobeat/catalog-seeder/internal/jobs/pipeline"

// DefaultGenres is the fixed vocabulary seeded by SeedGenres.
var DefaultGenres = []string{
	"Rock", "Pop", "Jazz", "Blues", "Hip-Hop",
	"Reggaeton", "Salsa", "Merengue", "Cumbia", "Electrónica",
	"Country", "Folk", "Metal", "Funk", "Clásica",
}

// AssetFetcher downloads one remote asset.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (*httpx.Asset, error)
}

type Config struct {
	// FeedName keys the saved feed cursor.
	FeedName       string
	PageSize       int
	CoverMaxDim    int
	PlaylistAuthor string
}

func DefaultConfig() Config {
	return Config{
		FeedName:       "jamendo",
		PageSize:       50,
		CoverMaxDim:    1200,
		PlaylistAuthor: "admin",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.FeedName) == "" {
		c.FeedName = d.FeedName
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	// 0 disables resizing.
	if c.CoverMaxDim < 0 {
		c.CoverMaxDim = d.CoverMaxDim
	}
	if strings.TrimSpace(c.PlaylistAuthor) == "" {
		c.PlaylistAuthor = d.PlaylistAuthor
	}
	return c
}

// Deps are the collaborators of a Pipeline. Feed, Fetcher and Blobs may be nil
// for runs that never touch the feed or object storage; the entry points that
// need them fail with a configuration error.
type Deps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Hooks    aggregates.Hooks
	Services catalog.Services
	Repos    repos.Set
	Feed     jamendo.Feed
	Fetcher  AssetFetcher
	Blobs    gcp.BlobStore
	Cursor   redis.CursorStore
	Metrics  *observability.Metrics
}

type Pipeline struct {
	base     aggregates.BaseDeps
	log      *logger.Logger
	services catalog.Services
	repos    repos.Set
	feed     jamendo.Feed
	fetcher  AssetFetcher
	blobs    gcp.BlobStore
	cursor   redis.CursorStore
	metrics  *observability.Metrics
	cfg      Config
}

func New(deps Deps, cfg Config) *Pipeline {
	cursor := deps.Cursor
	if cursor == nil {
		cursor = redis.NewMemoryCursorStore()
	}
	log := deps.Log.With("job", "catalog_pipeline")
	return &Pipeline{
		base:     aggregates.BaseDeps{DB: deps.DB, Log: log, Hooks: deps.Hooks}.WithDefaults(),
		log:      log,
		services: deps.Services,
		repos:    deps.Repos,
		feed:     deps.Feed,
		fetcher:  deps.Fetcher,
		blobs:    deps.Blobs,
		cursor:   cursor,
		metrics:  deps.Metrics,
		cfg:      cfg.withDefaults(),
	}
}

func (p *Pipeline) Config() Config { return p.cfg }
