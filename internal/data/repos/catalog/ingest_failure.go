package catalog

import (
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type IngestFailureRepo interface {
	Create(dbc dbctx.Context, row *types.IngestFailure) error
	ListRecent(dbc dbctx.Context, limit int) ([]*types.IngestFailure, error)
	Count(dbc dbctx.Context) (int, error)
}

type ingestFailureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestFailureRepo(db *gorm.DB, baseLog *logger.Logger) IngestFailureRepo {
	return &ingestFailureRepo{db: db, log: baseLog.With("repo", "IngestFailureRepo")}
}

func (r *ingestFailureRepo) Create(dbc dbctx.Context, row *types.IngestFailure) error {
	if row == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(row).Error
}

func (r *ingestFailureRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.IngestFailure, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.IngestFailure
	if err := dbc.Conn(r.db).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ingestFailureRepo) Count(dbc dbctx.Context) (int, error) {
	var n int64
	if err := dbc.Conn(r.db).Model(&types.IngestFailure{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
