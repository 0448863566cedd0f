package pipeline

import (
	"context"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

type Stats struct {
	Artists        int64
	Genres         int64
	Albums         int64
	Playlists      int64
	Tracks         int64
	AuthoredAlbums int64
	IngestFailures int64
}

// Stats counts catalog rows and publishes them as gauges.
func (p *Pipeline) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := dbctx.Context{Ctx: ctx}.Conn(p.base.DB)
	counts := []struct {
		table string
		model any
		dst   *int64
	}{
		{"artist", &types.Artist{}, &st.Artists},
		{"genre", &types.Genre{}, &st.Genres},
		{"album", &types.Album{}, &st.Albums},
		{"playlist", &types.Playlist{}, &st.Playlists},
		{"track", &types.Track{}, &st.Tracks},
		{"album_author", &types.AlbumAuthor{}, &st.AuthoredAlbums},
		{"ingest_failure", &types.IngestFailure{}, &st.IngestFailures},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return st, types.Wrap(types.CodePersistence, "pipeline.stats", c.table, err)
		}
		p.metrics.SetRows(c.table, *c.dst)
	}
	return st, nil
}

// RecentFailures returns the newest skipped feed records, newest first.
func (p *Pipeline) RecentFailures(ctx context.Context, limit int) ([]*types.IngestFailure, error) {
	rows, err := p.repos.IngestFailures.ListRecent(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, types.Wrap(types.CodePersistence, "pipeline.recent_failures", "", err)
	}
	return rows, nil
}
