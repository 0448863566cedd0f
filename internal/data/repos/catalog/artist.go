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

type ArtistRepo interface {
	// Upsert inserts row unless an artist with the same name exists and returns
	// the stored row either way. created is true when this call inserted it.
	Upsert(dbc dbctx.Context, row *types.Artist) (stored *types.Artist, created bool, err error)
	GetByName(dbc dbctx.Context, name string) (*types.Artist, error)
}

type artistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtistRepo(db *gorm.DB, baseLog *logger.Logger) ArtistRepo {
	return &artistRepo{db: db, log: baseLog.With("repo", "ArtistRepo")}
}

func (r *artistRepo) Upsert(dbc dbctx.Context, row *types.Artist) (*types.Artist, bool, error) {
	if row == nil || strings.TrimSpace(row.Name) == "" {
		return nil, false, types.ValidationError("artist.upsert", "", "artist name is empty")
	}
	t := dbc.Conn(r.db)
	res := t.Clauses(clause.OnConflict{
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
		return nil, false, types.NotFoundError("artist.upsert", row.Name, "artist missing after upsert")
	}
	return stored, res.RowsAffected > 0, nil
}

func (r *artistRepo) GetByName(dbc dbctx.Context, name string) (*types.Artist, error) {
	var out types.Artist
	err := dbc.Conn(r.db).Where("name = ?", name).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

