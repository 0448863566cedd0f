package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
)

func SeedArtist(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Artist {
	tb.Helper()
	a := &types.Artist{
		ID:              uuid.New(),
		Name:            name,
		Biography:       "Biography not available",
		ProfileImageURL: "default",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed artist: %v", err)
	}
	return a
}

func SeedGenre(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, imageURL *string) *types.Genre {
	tb.Helper()
	g := &types.Genre{ID: uuid.New(), Name: name, ImageURL: imageURL}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed genre: %v", err)
	}
	return g
}

func SeedAlbum(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Collection {
	tb.Helper()
	c := &types.Collection{
		ID:          uuid.New(),
		Name:        name,
		Description: "Music album",
		CoverURL:    "default",
		Kind:        types.CollectionKindAlbum,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed album collection: %v", err)
	}
	if err := tx.WithContext(ctx).Create(&types.Album{ID: c.ID, ReleaseDate: "2020-01-01"}).Error; err != nil {
		tb.Fatalf("seed album: %v", err)
	}
	return c
}

// SeedTrack creates a track with the given text duration and, when collectionID
// is set, positions it at position.
func SeedTrack(tb testing.TB, ctx context.Context, tx *gorm.DB, name, duration string, collectionID uuid.UUID, position int) *types.Track {
	tb.Helper()
	t := &types.Track{ID: uuid.New(), Name: name, Duration: duration, CoverURL: "default"}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed track: %v", err)
	}
	if collectionID != uuid.Nil {
		tp := &types.TrackPosition{CollectionID: collectionID, TrackID: t.ID, Position: position}
		if err := tx.WithContext(ctx).Create(tp).Error; err != nil {
			tb.Fatalf("seed track position %d: %v", position, err)
		}
	}
	return t
}

func SeedCredit(tb testing.TB, ctx context.Context, tx *gorm.DB, trackID, artistID uuid.UUID) {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(&types.ArtistTrack{TrackID: trackID, ArtistID: artistID}).Error; err != nil {
		tb.Fatalf("seed artist_track: %v", err)
	}
}

func PtrString(v string) *string { return &v }
