package catalog

import (
	"strings"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// EntityResolver finds or creates artists and genres by exact name.
type EntityResolver interface {
	ResolveArtist(dbc dbctx.Context, name string) (types.ArtistRef, error)
	ResolveGenre(dbc dbctx.Context, name string) (types.GenreRef, error)
}

type entityResolver struct {
	log     *logger.Logger
	artists repos.ArtistRepo
	genres  repos.GenreRepo
	cfg     Config
}

func NewEntityResolver(log *logger.Logger, artists repos.ArtistRepo, genres repos.GenreRepo, cfg Config) EntityResolver {
	return &entityResolver{
		log:     log.With("service", "EntityResolver"),
		artists: artists,
		genres:  genres,
		cfg:     cfg.withDefaults(),
	}
}

func (r *entityResolver) ResolveArtist(dbc dbctx.Context, name string) (types.ArtistRef, error) {
	const op = "catalog.resolve_artist"
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ArtistRef{}, types.ValidationError(op, "", "artist name is empty")
	}
	row, created, err := r.artists.Upsert(dbc, &types.Artist{
		Name:            name,
		Biography:       r.cfg.DefaultBiography,
		ProfileImageURL: r.cfg.DefaultImage,
	})
	if err != nil {
		return types.ArtistRef{}, aggregates.MapError(op, name, err)
	}
	if created {
		r.log.Debug("Artist created", "artist", name, "artist_id", row.ID)
	}
	return types.ArtistRef{ID: row.ID, Name: row.Name}, nil
}

func (r *entityResolver) ResolveGenre(dbc dbctx.Context, name string) (types.GenreRef, error) {
	const op = "catalog.resolve_genre"
	name = strings.TrimSpace(name)
	if name == "" {
		return types.GenreRef{}, types.ValidationError(op, "", "genre name is empty")
	}
	row, created, err := r.genres.Upsert(dbc, &types.Genre{Name: name})
	if err != nil {
		return types.GenreRef{}, aggregates.MapError(op, name, err)
	}
	if created {
		r.log.Debug("Genre created", "genre", name, "genre_id", row.ID)
	}
	return types.GenreRef{ID: row.ID, Name: row.Name}, nil
}
