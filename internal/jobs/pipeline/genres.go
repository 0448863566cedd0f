package pipeline

import (
	"context"
	"strings"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

type SeedReport struct {
	Created  []string
	Existing []string
	Failed   []FailedRecord
}

// SeedGenres ensures every name exists as a genre. An empty list seeds
// DefaultGenres.
func (p *Pipeline) SeedGenres(ctx context.Context, names []string) (SeedReport, error) {
	const op = "pipeline.seed_genre"
	var rep SeedReport
	names = types.CleanNames(names)
	if len(names) == 0 {
		names = DefaultGenres
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		var existed bool
		err := aggregates.ExecuteWrite(ctx, p.base, op, name, func(dbc dbctx.Context) error {
			g, err := p.repos.Genre.GetByName(dbc, name)
			if err != nil {
				return err
			}
			existed = g != nil
			_, err = p.services.Resolver.ResolveGenre(dbc, name)
			return err
		})
		switch {
		case err != nil:
			p.log.Warn("Seeding genre failed", "genre", name, "error", err)
			rep.Failed = append(rep.Failed, FailedRecord{Name: name, Code: types.CodeOf(err), Message: err.Error()})
		case existed:
			rep.Existing = append(rep.Existing, name)
		default:
			rep.Created = append(rep.Created, name)
		}
	}
	p.log.Info("Genres seeded",
		"created", len(rep.Created),
		"existing", len(rep.Existing),
		"failed", len(rep.Failed),
		"names", strings.Join(names, ","),
	)
	return rep, nil
}
