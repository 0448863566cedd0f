package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type PlaylistResult struct {
	PlaylistID uuid.UUID
	Created    bool
	Appended   int
	Total      int
}

// PlaylistCurator maintains the predefined per-genre playlists.
type PlaylistCurator interface {
	// SyncGenrePlaylist creates the playlist for genre when absent and appends
	// every genre track not yet on it, keeping positions dense.
	SyncGenrePlaylist(ctx context.Context, genre types.Genre, author string) (PlaylistResult, error)
}

type playlistCurator struct {
	log         *logger.Logger
	deps        aggregates.BaseDeps
	collections repos.CollectionRepo
	positions   repos.PositionRepo
	tracks      repos.TrackRepo
	cfg         Config
}

func NewPlaylistCurator(
	deps aggregates.BaseDeps,
	collections repos.CollectionRepo,
	positions repos.PositionRepo,
	tracks repos.TrackRepo,
	cfg Config,
) PlaylistCurator {
	return &playlistCurator{
		log:         deps.Log.With("service", "PlaylistCurator"),
		deps:        deps,
		collections: collections,
		positions:   positions,
		tracks:      tracks,
		cfg:         cfg.withDefaults(),
	}
}

func (s *playlistCurator) SyncGenrePlaylist(ctx context.Context, genre types.Genre, author string) (PlaylistResult, error) {
	const op = "catalog.sync_genre_playlist"
	var res PlaylistResult
	name := strings.TrimSpace(genre.Name)
	if name == "" {
		return res, types.ValidationError(op, "", "genre name is empty")
	}

	err := aggregates.ExecuteWrite(ctx, s.deps, op, name, func(dbc dbctx.Context) error {
		res = PlaylistResult{}
		pl, err := s.collections.FindPlaylistByName(dbc, name)
		if err != nil {
			return err
		}
		if pl == nil {
			cover := s.cfg.DefaultImage
			if genre.ImageURL != nil && strings.TrimSpace(*genre.ImageURL) != "" {
				cover = *genre.ImageURL
			}
			pl = &types.Collection{
				Name:        name,
				Description: s.cfg.PlaylistDescription,
				CoverURL:    cover,
			}
			genreName := name
			if err := s.collections.CreatePlaylist(dbc, pl, author, &genreName); err != nil {
				return err
			}
			res.Created = true
		}
		res.PlaylistID = pl.ID

		onList, err := s.positions.TrackIDs(dbc, pl.ID)
		if err != nil {
			return err
		}
		seen := make(map[uuid.UUID]struct{}, len(onList))
		for _, id := range onList {
			seen[id] = struct{}{}
		}

		tracks, err := s.tracks.ListByGenre(dbc, genre.ID)
		if err != nil {
			return err
		}
		next := len(onList) + 1
		for _, t := range tracks {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			if err := s.positions.Create(dbc, &types.TrackPosition{CollectionID: pl.ID, TrackID: t.ID, Position: next}); err != nil {
				return err
			}
			seen[t.ID] = struct{}{}
			next++
			res.Appended++
		}
		res.Total = next - 1
		return nil
	})
	if err != nil {
		return PlaylistResult{}, err
	}
	s.log.Debug("Genre playlist synced", "genre", name, "playlist_id", res.PlaylistID, "created", res.Created, "appended", res.Appended)
	return res, nil
}
