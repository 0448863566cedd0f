package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type PositionRepo interface {
	Count(dbc dbctx.Context, collectionID uuid.UUID) (int, error)
	Create(dbc dbctx.Context, row *types.TrackPosition) error
	ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*types.TrackPosition, error)
	TrackIDs(dbc dbctx.Context, collectionID uuid.UUID) ([]uuid.UUID, error)
	// Durations returns the raw text duration of every positioned track.
	Durations(dbc dbctx.Context, collectionID uuid.UUID) ([]TrackDuration, error)
}

type TrackDuration struct {
	TrackID  uuid.UUID
	Name     string
	Duration string
}

type positionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPositionRepo(db *gorm.DB, baseLog *logger.Logger) PositionRepo {
	return &positionRepo{db: db, log: baseLog.With("repo", "PositionRepo")}
}

func (r *positionRepo) Count(dbc dbctx.Context, collectionID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.TrackPosition{}).
		Where("collection_id = ?", collectionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *positionRepo) Create(dbc dbctx.Context, row *types.TrackPosition) error {
	if row == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(row).Error
}

func (r *positionRepo) ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*types.TrackPosition, error) {
	var out []*types.TrackPosition
	if err := dbc.Conn(r.db).
		Where("collection_id = ?", collectionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *positionRepo) TrackIDs(dbc dbctx.Context, collectionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.ListByCollection(dbc, collectionID)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.TrackID)
	}
	return out, nil
}

func (r *positionRepo) Durations(dbc dbctx.Context, collectionID uuid.UUID) ([]TrackDuration, error) {
	var out []TrackDuration
	if err := dbc.Conn(r.db).
		Table("track_position").
		Select("track.id AS track_id, track.name AS name, track.duration AS duration").
		Joins("JOIN track ON track.id = track_position.track_id").
		Where("track_position.collection_id = ?", collectionID).
		Order("track_position.position ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
