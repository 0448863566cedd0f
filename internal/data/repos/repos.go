package repos

import (
	"gorm.io/gorm"

	"github.com/echobeat/catalog-seeder/internal/data/repos/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type ArtistRepo = catalog.ArtistRepo
type GenreRepo = catalog.GenreRepo
type CollectionRepo = catalog.CollectionRepo
type TrackRepo = catalog.TrackRepo
type PositionRepo = catalog.PositionRepo
type CreditRepo = catalog.CreditRepo
type AlbumAuthorRepo = catalog.AlbumAuthorRepo
type IngestFailureRepo = catalog.IngestFailureRepo

type ArtistCoverageRow = catalog.ArtistCoverage
type TrackDurationRow = catalog.TrackDuration

// Set is every catalog repo bound to one store handle.
type Set struct {
	Artist         ArtistRepo
	Genre          GenreRepo
	Collection     CollectionRepo
	Track          TrackRepo
	Position       PositionRepo
	Credit         CreditRepo
	AlbumAuthor    AlbumAuthorRepo
	IngestFailures IngestFailureRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Artist:         catalog.NewArtistRepo(db, log),
		Genre:          catalog.NewGenreRepo(db, log),
		Collection:     catalog.NewCollectionRepo(db, log),
		Track:          catalog.NewTrackRepo(db, log),
		Position:       catalog.NewPositionRepo(db, log),
		Credit:         catalog.NewCreditRepo(db, log),
		AlbumAuthor:    catalog.NewAlbumAuthorRepo(db, log),
		IngestFailures: catalog.NewIngestFailureRepo(db, log),
	}
}
