package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type CollectionRepo interface {
	FindAlbumByName(dbc dbctx.Context, name string) (*types.Collection, error)
	CreateAlbum(dbc dbctx.Context, coll *types.Collection, releaseDate string) error
	FindPlaylistByName(dbc dbctx.Context, name string) (*types.Collection, error)
	CreatePlaylist(dbc dbctx.Context, coll *types.Collection, author string, genre *string) error

	ListAll(dbc dbctx.Context) ([]*types.Collection, error)
	ListAlbums(dbc dbctx.Context) ([]*types.Collection, error)

	UpdateAggregates(dbc dbctx.Context, id uuid.UUID, trackCount, duration int) error
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return &collectionRepo{db: db, log: baseLog.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) FindAlbumByName(dbc dbctx.Context, name string) (*types.Collection, error) {
	var out types.Collection
	err := dbc.Conn(r.db).
		Table("collection").
		Select("collection.*").
		Joins("JOIN album ON album.id = collection.id").
		Where("collection.name = ? AND collection.kind = ?", name, types.CollectionKindAlbum).
		Order("collection.created_at ASC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *collectionRepo) CreateAlbum(dbc dbctx.Context, coll *types.Collection, releaseDate string) error {
	if coll == nil || strings.TrimSpace(coll.Name) == "" {
		return types.ValidationError("album.create", "", "album name is empty")
	}
	coll.Kind = types.CollectionKindAlbum
	t := dbc.Conn(r.db)
	if err := t.Create(coll).Error; err != nil {
		return err
	}
	return t.Create(&types.Album{ID: coll.ID, ReleaseDate: releaseDate}).Error
}

func (r *collectionRepo) FindPlaylistByName(dbc dbctx.Context, name string) (*types.Collection, error) {
	var out types.Collection
	err := dbc.Conn(r.db).
		Table("collection").
		Select("collection.*").
		Joins("JOIN playlist ON playlist.id = collection.id").
		Where("collection.name = ? AND collection.kind = ?", name, types.CollectionKindPlaylist).
		Order("collection.created_at ASC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *collectionRepo) CreatePlaylist(dbc dbctx.Context, coll *types.Collection, author string, genre *string) error {
	if coll == nil || strings.TrimSpace(coll.Name) == "" {
		return types.ValidationError("playlist.create", "", "playlist name is empty")
	}
	coll.Kind = types.CollectionKindPlaylist
	t := dbc.Conn(r.db)
	if err := t.Create(coll).Error; err != nil {
		return err
	}
	return t.Create(&types.Playlist{ID: coll.ID, Author: author, Genre: genre}).Error
}

func (r *collectionRepo) ListAll(dbc dbctx.Context) ([]*types.Collection, error) {
	var out []*types.Collection
	if err := dbc.Conn(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *collectionRepo) ListAlbums(dbc dbctx.Context) ([]*types.Collection, error) {
	var out []*types.Collection
	if err := dbc.Conn(r.db).
		Table("collection").
		Select("collection.*").
		Joins("JOIN album ON album.id = collection.id").
		Where("collection.kind = ?", types.CollectionKindAlbum).
		Order("collection.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *collectionRepo) UpdateAggregates(dbc dbctx.Context, id uuid.UUID, trackCount, duration int) error {
	return dbc.Conn(r.db).
		Model(&types.Collection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"track_count": trackCount,
			"duration":    duration,
		}).Error
}
