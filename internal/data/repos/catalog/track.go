package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type TrackRepo interface {
	Create(dbc dbctx.Context, row *types.Track) error
	ListByName(dbc dbctx.Context, name string) ([]*types.Track, error)
	ListNames(dbc dbctx.Context) ([]string, error)
	ListByGenre(dbc dbctx.Context, genreID uuid.UUID) ([]*types.Track, error)
	UpdateCoverURLByName(dbc dbctx.Context, name, url string) (int64, error)
}

type trackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	return &trackRepo{db: db, log: baseLog.With("repo", "TrackRepo")}
}

func (r *trackRepo) Create(dbc dbctx.Context, row *types.Track) error {
	if row == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(row).Error
}

func (r *trackRepo) ListByName(dbc dbctx.Context, name string) ([]*types.Track, error) {
	var out []*types.Track
	if err := dbc.Conn(r.db).Where("name = ?", name).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *trackRepo) ListNames(dbc dbctx.Context) ([]string, error) {
	var out []string
	if err := dbc.Conn(r.db).Model(&types.Track{}).Distinct("name").Order("name ASC").Pluck("name", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByGenre returns the genre's tracks in ingestion order.
func (r *trackRepo) ListByGenre(dbc dbctx.Context, genreID uuid.UUID) ([]*types.Track, error) {
	var out []*types.Track
	if genreID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Table("track").
		Select("track.*").
		Joins("JOIN genre_track ON genre_track.track_id = track.id").
		Where("genre_track.genre_id = ?", genreID).
		Order("track.created_at ASC, track.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCoverURLByName sets the cover of every track carrying name.
func (r *trackRepo) UpdateCoverURLByName(dbc dbctx.Context, name, url string) (int64, error) {
	res := dbc.Conn(r.db).Model(&types.Track{}).Where("name = ?", name).Update("cover_url", url)
	return res.RowsAffected, res.Error
}
