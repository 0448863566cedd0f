package catalog

import (
	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
)

// Services wires the catalog components over one repo set.
type Services struct {
	Resolver   EntityResolver
	Albums     AlbumAggregator
	Ingestor   TrackIngestor
	Authorship AuthorshipInferencer
	Refresher  AggregateRefresher
	Playlists  PlaylistCurator
}

func NewServices(deps aggregates.BaseDeps, set repos.Set, cfg Config) Services {
	deps = deps.WithDefaults()
	resolver := NewEntityResolver(deps.Log, set.Artist, set.Genre, cfg)
	albums := NewAlbumAggregator(deps.Log, set.Collection, set.Position, cfg)
	return Services{
		Resolver:   resolver,
		Albums:     albums,
		Ingestor:   NewTrackIngestor(deps, resolver, albums, set.Track, set.Position, set.Credit, cfg),
		Authorship: NewAuthorshipInferencer(deps, set.Collection, set.Position, set.Credit, set.AlbumAuthor),
		Refresher:  NewAggregateRefresher(deps, set.Collection, set.Position),
		Playlists:  NewPlaylistCurator(deps, set.Collection, set.Position, set.Track, cfg),
	}
}
