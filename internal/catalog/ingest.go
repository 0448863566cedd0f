package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// TrackInput is one track ready for the catalog: assets are already uploaded
// and CoverURL/AudioURL are public URLs.
type TrackInput struct {
	Name            string
	Artists         []string
	Album           string
	DurationSeconds int
	CoverURL        string
	AudioURL        string
	LicenseURL      string
	ReleaseDate     string
	Genres          []string
}

func (in TrackInput) Validate() error {
	const op = "catalog.ingest"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.ValidationError(op, "", "track name is empty")
	}
	if len(types.CleanNames(in.Artists)) == 0 {
		return types.ValidationError(op, name, "at least one artist name is required")
	}
	if strings.TrimSpace(in.Album) == "" {
		return types.ValidationError(op, name, "album name is empty")
	}
	if in.DurationSeconds < 0 {
		return types.ValidationError(op, name, "negative duration")
	}
	return nil
}

// TrackIngestor writes one track and all of its links as a single transaction.
type TrackIngestor interface {
	Ingest(ctx context.Context, in TrackInput) (types.TrackRef, error)
}

type trackIngestor struct {
	log       *logger.Logger
	deps      aggregates.BaseDeps
	resolver  EntityResolver
	albums    AlbumAggregator
	tracks    repos.TrackRepo
	positions repos.PositionRepo
	credits   repos.CreditRepo
	cfg       Config
}

func NewTrackIngestor(
	deps aggregates.BaseDeps,
	resolver EntityResolver,
	albums AlbumAggregator,
	tracks repos.TrackRepo,
	positions repos.PositionRepo,
	credits repos.CreditRepo,
	cfg Config,
) TrackIngestor {
	return &trackIngestor{
		log:       deps.Log.With("service", "TrackIngestor"),
		deps:      deps,
		resolver:  resolver,
		albums:    albums,
		tracks:    tracks,
		positions: positions,
		credits:   credits,
		cfg:       cfg.withDefaults(),
	}
}

func (s *trackIngestor) Ingest(ctx context.Context, in TrackInput) (types.TrackRef, error) {
	const op = "catalog.ingest"
	if err := in.Validate(); err != nil {
		return types.TrackRef{}, err
	}
	name := strings.TrimSpace(in.Name)
	artistNames := types.CleanNames(in.Artists)
	genreNames := types.CleanNames(in.Genres)

	var ref types.TrackRef
	err := aggregates.ExecuteWrite(ctx, s.deps, op, name, func(dbc dbctx.Context) error {
		artistIDs := make([]uuid.UUID, 0, len(artistNames))
		for _, an := range artistNames {
			a, err := s.resolver.ResolveArtist(dbc, an)
			if err != nil {
				return err
			}
			artistIDs = append(artistIDs, a.ID)
		}

		album, existing, err := s.albums.ResolveAlbum(dbc, in.Album, in.ReleaseDate)
		if err != nil {
			code := types.CodeOf(err)
			if code == "" {
				code = types.CodePersistence
			}
			return types.NewError(code, op+".resolve_album", name, err.Error(), err)
		}

		cover := strings.TrimSpace(in.CoverURL)
		if cover == "" {
			cover = s.cfg.DefaultImage
		}
		track := &types.Track{
			Name:       name,
			Duration:   strconv.Itoa(in.DurationSeconds),
			CoverURL:   cover,
			AudioURL:   strings.TrimSpace(in.AudioURL),
			LicenseURL: strings.TrimSpace(in.LicenseURL),
		}
		if err := s.tracks.Create(dbc, track); err != nil {
			return aggregates.MapError(op+".insert_track", name, err)
		}

		position := existing + 1
		if err := s.positions.Create(dbc, &types.TrackPosition{
			CollectionID: album.ID,
			TrackID:      track.ID,
			Position:     position,
		}); err != nil {
			return aggregates.MapError(op+".insert_position", name, err)
		}

		if err := s.credits.LinkArtists(dbc, track.ID, artistIDs); err != nil {
			return aggregates.MapError(op+".link_artists", name, err)
		}

		genreIDs := make([]uuid.UUID, 0, len(genreNames))
		for _, gn := range genreNames {
			g, err := s.resolver.ResolveGenre(dbc, gn)
			if err != nil {
				return err
			}
			genreIDs = append(genreIDs, g.ID)
		}
		if err := s.credits.LinkGenres(dbc, track.ID, genreIDs); err != nil {
			return aggregates.MapError(op+".link_genres", name, err)
		}

		ref = types.TrackRef{ID: track.ID, Name: track.Name, AlbumID: album.ID, Position: position}
		return nil
	})
	if err != nil {
		s.log.Warn("Track ingestion rolled back", "track", name, "album", in.Album, "error", err)
		return types.TrackRef{}, err
	}
	s.log.Debug("Track ingested", "track", name, "track_id", ref.ID, "album", in.Album, "position", ref.Position)
	return ref, nil
}
