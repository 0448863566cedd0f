package catalog

import (
	"context"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type InferenceReport struct {
	Albums          int
	Assigned        int
	AlreadyAuthored int
	Authorless      int
	Failed          int
	// Ambiguous names albums where several artists are credited on every
	// track; the first of them by name was assigned.
	Ambiguous []string
}

// AuthorshipInferencer assigns an album author once every track of the album
// is known. An artist becomes the author only when credited on all T > 0
// tracks; existing authors are never replaced.
type AuthorshipInferencer interface {
	InferAll(ctx context.Context) (InferenceReport, error)
}

type authorshipInferencer struct {
	log         *logger.Logger
	deps        aggregates.BaseDeps
	collections repos.CollectionRepo
	positions   repos.PositionRepo
	credits     repos.CreditRepo
	authors     repos.AlbumAuthorRepo
}

func NewAuthorshipInferencer(
	deps aggregates.BaseDeps,
	collections repos.CollectionRepo,
	positions repos.PositionRepo,
	credits repos.CreditRepo,
	authors repos.AlbumAuthorRepo,
) AuthorshipInferencer {
	return &authorshipInferencer{
		log:         deps.Log.With("service", "AuthorshipInferencer"),
		deps:        deps,
		collections: collections,
		positions:   positions,
		credits:     credits,
		authors:     authors,
	}
}

type albumOutcome int

const (
	outcomeAuthorless albumOutcome = iota
	outcomeAssigned
	outcomeAlreadyAuthored
)

func (s *authorshipInferencer) InferAll(ctx context.Context) (InferenceReport, error) {
	const op = "catalog.infer_authors"
	var report InferenceReport

	albums, err := s.collections.ListAlbums(dbctx.Context{Ctx: ctx})
	if err != nil {
		return report, aggregates.MapError(op, "", err)
	}
	report.Albums = len(albums)

	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var (
			outcome   albumOutcome
			ambiguous bool
		)
		err := aggregates.ExecuteWrite(ctx, s.deps, op, album.Name, func(dbc dbctx.Context) error {
			has, err := s.authors.Exists(dbc, album.ID)
			if err != nil {
				return err
			}
			if has {
				outcome = outcomeAlreadyAuthored
				return nil
			}
			total, err := s.positions.Count(dbc, album.ID)
			if err != nil {
				return err
			}
			if total == 0 {
				outcome = outcomeAuthorless
				return nil
			}
			coverage, err := s.credits.ArtistCoverage(dbc, album.ID)
			if err != nil {
				return err
			}
			author, qualifying := pickAuthor(coverage, total)
			if qualifying == 0 {
				outcome = outcomeAuthorless
				return nil
			}
			ambiguous = qualifying > 1
			if _, err := s.authors.Create(dbc, &types.AlbumAuthor{AlbumID: album.ID, ArtistID: author.ArtistID}); err != nil {
				return err
			}
			outcome = outcomeAssigned
			s.log.Debug("Album author assigned", "album", album.Name, "artist", author.Name, "tracks", total)
			return nil
		})
		if err != nil {
			report.Failed++
			s.log.Warn("Album authorship skipped", "album", album.Name, "album_id", album.ID, "error", err)
			continue
		}
		switch outcome {
		case outcomeAssigned:
			report.Assigned++
		case outcomeAlreadyAuthored:
			report.AlreadyAuthored++
		default:
			report.Authorless++
		}
		if ambiguous {
			report.Ambiguous = append(report.Ambiguous, album.Name)
			s.log.Warn("Several artists cover every track, first by name assigned", "album", album.Name)
		}
	}

	s.log.Info("Authorship inference finished",
		"albums", report.Albums,
		"assigned", report.Assigned,
		"already_authored", report.AlreadyAuthored,
		"authorless", report.Authorless,
		"ambiguous", len(report.Ambiguous),
		"failed", report.Failed,
	)
	return report, nil
}

// pickAuthor returns the first artist, in coverage order, credited on every
// track, together with how many artists qualify.
func pickAuthor(coverage []repos.ArtistCoverageRow, total int) (repos.ArtistCoverageRow, int) {
	var (
		first      repos.ArtistCoverageRow
		qualifying int
	)
	if total <= 0 {
		return first, 0
	}
	for _, c := range coverage {
		if c.Tracks != total {
			continue
		}
		if qualifying == 0 {
			first = c
		}
		qualifying++
	}
	return first, qualifying
}
