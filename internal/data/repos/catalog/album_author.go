package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type AlbumAuthorRepo interface {
	Get(dbc dbctx.Context, albumID uuid.UUID) (*types.AlbumAuthor, error)
	Exists(dbc dbctx.Context, albumID uuid.UUID) (bool, error)
	// Create never overwrites an existing author; created reports whether row was stored.
	Create(dbc dbctx.Context, row *types.AlbumAuthor) (created bool, err error)
}

type albumAuthorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlbumAuthorRepo(db *gorm.DB, baseLog *logger.Logger) AlbumAuthorRepo {
	return &albumAuthorRepo{db: db, log: baseLog.With("repo", "AlbumAuthorRepo")}
}

func (r *albumAuthorRepo) Get(dbc dbctx.Context, albumID uuid.UUID) (*types.AlbumAuthor, error) {
	var out types.AlbumAuthor
	err := dbc.Conn(r.db).Where("album_id = ?", albumID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *albumAuthorRepo) Exists(dbc dbctx.Context, albumID uuid.UUID) (bool, error) {
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.AlbumAuthor{}).
		Where("album_id = ?", albumID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *albumAuthorRepo) Create(dbc dbctx.Context, row *types.AlbumAuthor) (bool, error) {
	if row == nil || row.AlbumID == uuid.Nil || row.ArtistID == uuid.Nil {
		return false, types.ValidationError("album_author.create", "", "album and artist ids are required")
	}
	res := dbc.Conn(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "album_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
