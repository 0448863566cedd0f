package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// CreditRepo owns the artist_track and genre_track link tables.
type CreditRepo interface {
	LinkArtists(dbc dbctx.Context, trackID uuid.UUID, artistIDs []uuid.UUID) error
	LinkGenres(dbc dbctx.Context, trackID uuid.UUID, genreIDs []uuid.UUID) error
	// ArtistCoverage counts, per artist, the distinct tracks of a collection the
	// artist is credited on. Rows are ordered by artist name, then id.
	ArtistCoverage(dbc dbctx.Context, collectionID uuid.UUID) ([]ArtistCoverage, error)
}

type ArtistCoverage struct {
	ArtistID uuid.UUID
	Name     string
	Tracks   int
}

type creditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreditRepo(db *gorm.DB, baseLog *logger.Logger) CreditRepo {
	return &creditRepo{db: db, log: baseLog.With("repo", "CreditRepo")}
}

func (r *creditRepo) LinkArtists(dbc dbctx.Context, trackID uuid.UUID, artistIDs []uuid.UUID) error {
	if trackID == uuid.Nil || len(artistIDs) == 0 {
		return nil
	}
	rows := make([]*types.ArtistTrack, 0, len(artistIDs))
	for _, id := range uniqueIDs(artistIDs) {
		rows = append(rows, &types.ArtistTrack{TrackID: trackID, ArtistID: id})
	}
	return dbc.Conn(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *creditRepo) LinkGenres(dbc dbctx.Context, trackID uuid.UUID, genreIDs []uuid.UUID) error {
	if trackID == uuid.Nil || len(genreIDs) == 0 {
		return nil
	}
	rows := make([]*types.GenreTrack, 0, len(genreIDs))
	for _, id := range uniqueIDs(genreIDs) {
		rows = append(rows, &types.GenreTrack{GenreID: id, TrackID: trackID})
	}
	return dbc.Conn(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *creditRepo) ArtistCoverage(dbc dbctx.Context, collectionID uuid.UUID) ([]ArtistCoverage, error) {
	var out []ArtistCoverage
	if err := dbc.Conn(r.db).
		Table("track_position").
		Select("artist.id AS artist_id, artist.name AS name, COUNT(DISTINCT track_position.track_id) AS tracks").
		Joins("JOIN artist_track ON artist_track.track_id = track_position.track_id").
		Joins("JOIN artist ON artist.id = artist_track.artist_id").
		Where("track_position.collection_id = ?", collectionID).
		Group("artist.id, artist.name").
		Order("artist.name ASC, artist.id ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
