package catalog

import (
	"strings"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// AlbumAggregator finds or creates albums by name. Album names are treated as
// globally unique; two artists releasing the same title share one album.
type AlbumAggregator interface {
	// ResolveAlbum returns the album and its live track-position count.
	ResolveAlbum(dbc dbctx.Context, name, releaseDate string) (types.AlbumRef, int, error)
}

type albumAggregator struct {
	log         *logger.Logger
	collections repos.CollectionRepo
	positions   repos.PositionRepo
	cfg         Config
}

func NewAlbumAggregator(log *logger.Logger, collections repos.CollectionRepo, positions repos.PositionRepo, cfg Config) AlbumAggregator {
	return &albumAggregator{
		log:         log.With("service", "AlbumAggregator"),
		collections: collections,
		positions:   positions,
		cfg:         cfg.withDefaults(),
	}
}

func (a *albumAggregator) ResolveAlbum(dbc dbctx.Context, name, releaseDate string) (types.AlbumRef, int, error) {
	const op = "catalog.resolve_album"
	name = strings.TrimSpace(name)
	if name == "" {
		return types.AlbumRef{}, 0, types.ValidationError(op, "", "album name is empty")
	}

	existing, err := a.collections.FindAlbumByName(dbc, name)
	if err != nil {
		return types.AlbumRef{}, 0, aggregates.MapError(op, name, err)
	}
	if existing != nil {
		count, err := a.positions.Count(dbc, existing.ID)
		if err != nil {
			return types.AlbumRef{}, 0, aggregates.MapError(op, name, err)
		}
		return types.AlbumRef{ID: existing.ID, Name: existing.Name}, count, nil
	}

	coll := &types.Collection{
		Name:        name,
		Description: a.cfg.AlbumDescription,
		CoverURL:    a.cfg.DefaultImage,
	}
	if err := a.collections.CreateAlbum(dbc, coll, strings.TrimSpace(releaseDate)); err != nil {
		return types.AlbumRef{}, 0, aggregates.MapError(op, name, err)
	}

	created, err := a.collections.FindAlbumByName(dbc, name)
	if err != nil {
		return types.AlbumRef{}, 0, aggregates.MapError(op, name, err)
	}
	if created == nil {
		return types.AlbumRef{}, 0, types.NotFoundError(op, name, "album not visible after insert")
	}
	a.log.Debug("Album created", "album", name, "album_id", created.ID, "release_date", releaseDate)
	return types.AlbumRef{ID: created.ID, Name: created.Name}, 0, nil
}
