package catalog

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type GenreRepo interface {
	Upsert(dbc dbctx.Context, row *types.Genre) (stored *types.Genre, created bool, err error)
	GetByName(dbc dbctx.Context, name string) (*types.Genre, error)
	ListAll(dbc dbctx.Context) ([]*types.Genre, error)
	ListWithImage(dbc dbctx.Context) ([]*types.Genre, error)
	UpdateImageURL(dbc dbctx.Context, name, url string) (int64, error)
}

type genreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenreRepo(db *gorm.DB, baseLog *logger.Logger) GenreRepo {
	return &genreRepo{db: db, log: baseLog.With("repo", "GenreRepo")}
}

func (r *genreRepo) Upsert(dbc dbctx.Context, row *types.Genre) (*types.Genre, bool, error) {
	if row == nil || strings.TrimSpace(row.Name) == "" {
		return nil, false, types.ValidationError("genre.upsert", "", "genre name is empty")
	}
	res := dbc.Conn(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := r.GetByName(dbc, row.Name)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, types.NotFoundError("genre.upsert", row.Name, "genre missing after upsert")
	}
	return stored, res.RowsAffected > 0, nil
}

func (r *genreRepo) GetByName(dbc dbctx.Context, name string) (*types.Genre, error) {
	var out types.Genre
	err := dbc.Conn(r.db).Where("name = ?", name).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *genreRepo) ListAll(dbc dbctx.Context) ([]*types.Genre, error) {
	var out []*types.Genre
	if err := dbc.Conn(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *genreRepo) ListWithImage(dbc dbctx.Context) ([]*types.Genre, error) {
	var out []*types.Genre
	if err := dbc.Conn(r.db).
		Where("image_url IS NOT NULL AND image_url <> ''").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *genreRepo) UpdateImageURL(dbc dbctx.Context, name, url string) (int64, error) {
	res := dbc.Conn(r.db).Model(&types.Genre{}).Where("name = ?", name).Update("image_url", url)
	return res.RowsAffected, res.Error
}
