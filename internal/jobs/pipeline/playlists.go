package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

type PlaylistLine struct {
	Genre    string
	Created  bool
	Appended int
	Total    int
}

type PlaylistReport struct {
	Playlists []PlaylistLine
	Failed    []FailedRecord
}

// BuildGenrePlaylists keeps one playlist per genre that has an image.
// Genres without an image are not eligible.
func (p *Pipeline) BuildGenrePlaylists(ctx context.Context) (PlaylistReport, error) {
	const op = "pipeline.genre_playlists"
	var rep PlaylistReport
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	genres, err := p.repos.Genre.ListWithImage(dbctx.Context{Ctx: ctx})
	if err != nil {
		return rep, types.Wrap(types.CodePersistence, op, "", err)
	}
	for _, g := range genres {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := p.services.Playlists.SyncGenrePlaylist(ctx, *g, p.cfg.PlaylistAuthor)
		if err != nil {
			p.log.Warn("Genre playlist failed", "genre", g.Name, "error", err)
			rep.Failed = append(rep.Failed, FailedRecord{Name: g.Name, Code: types.CodeOf(err), Message: err.Error()})
			continue
		}
		rep.Playlists = append(rep.Playlists, PlaylistLine{Genre: g.Name, Created: res.Created, Appended: res.Appended, Total: res.Total})
	}
	span.SetAttributes(attribute.Int("playlists", len(rep.Playlists)), attribute.Int("failed", len(rep.Failed)))
	p.log.Info("Genre playlists synced", "genres", len(genres), "synced", len(rep.Playlists), "failed", len(rep.Failed))
	return rep, nil
}
