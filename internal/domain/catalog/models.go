package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CollectionKind string

const (
	CollectionKindAlbum    CollectionKind = "album"
	CollectionKindPlaylist CollectionKind = "playlist"
)

type Artist struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Biography       string    `gorm:"column:biography;not null" json:"biography"`
	ProfileImageURL string    `gorm:"column:profile_image_url;not null" json:"profile_image_url"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

func (Artist) TableName() string { return "artist" }

func (a *Artist) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Genre struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	ImageURL  *string   `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Genre) TableName() string { return "genre" }

func (g *Genre) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Collection is the generic ordered list of tracks. TrackCount and Duration are
// derived from track_position and rewritten by the aggregate refresh.
type Collection struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	TrackCount  int            `gorm:"column:track_count;not null;default:0" json:"track_count"`
	Duration    int            `gorm:"column:duration;not null;default:0" json:"duration"`
	LikeCount   int            `gorm:"column:like_count;not null;default:0" json:"like_count"`
	Description string         `gorm:"column:description" json:"description"`
	CoverURL    string         `gorm:"column:cover_url" json:"cover_url"`
	Kind        CollectionKind `gorm:"column:kind;not null;index" json:"kind"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Collection) TableName() string { return "collection" }

func (c *Collection) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Album specializes a Collection; ID is the collection id.
type Album struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReleaseDate string    `gorm:"column:release_date" json:"release_date"`
}

func (Album) TableName() string { return "album" }

// Playlist specializes a Collection; ID is the collection id.
type Playlist struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Author string    `gorm:"column:author;not null" json:"author"`
	Genre  *string   `gorm:"column:genre;index" json:"genre,omitempty"`
}

func (Playlist) TableName() string { return "playlist" }

// Track keeps Duration as text; readers must parse it.
type Track struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null;index" json:"name"`
	Duration      string    `gorm:"column:duration;not null" json:"duration"`
	PlayCount     int       `gorm:"column:play_count;not null;default:0" json:"play_count"`
	FavoriteCount int       `gorm:"column:favorite_count;not null;default:0" json:"favorite_count"`
	CoverURL      string    `gorm:"column:cover_url" json:"cover_url"`
	AudioURL      string    `gorm:"column:audio_url" json:"audio_url"`
	LicenseURL    string    `gorm:"column:license_url" json:"license_url"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

func (Track) TableName() string { return "track" }

func (t *Track) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TrackPosition fixes a track's 1-based slot in a collection.
type TrackPosition struct {
	CollectionID uuid.UUID `gorm:"type:uuid;primaryKey;uniqueIndex:idx_track_position_member,priority:1" json:"collection_id"`
	Position     int       `gorm:"primaryKey;autoIncrement:false" json:"position"`
	TrackID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_track_position_member,priority:2" json:"track_id"`
}

func (TrackPosition) TableName() string { return "track_position" }

type ArtistTrack struct {
	TrackID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"track_id"`
	ArtistID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"artist_id"`
}

func (ArtistTrack) TableName() string { return "artist_track" }

type GenreTrack struct {
	GenreID uuid.UUID `gorm:"type:uuid;primaryKey" json:"genre_id"`
	TrackID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"track_id"`
}

func (GenreTrack) TableName() string { return "genre_track" }

// AlbumAuthor holds at most one artist per album. Rows are never updated.
type AlbumAuthor struct {
	AlbumID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"album_id"`
	ArtistID  uuid.UUID `gorm:"type:uuid;not null;index" json:"artist_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AlbumAuthor) TableName() string { return "album_author" }

// IngestFailure records a skipped feed record with enough context to replay it.
type IngestFailure struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TrackName string         `gorm:"column:track_name;not null;index" json:"track_name"`
	Operation string         `gorm:"column:operation;not null" json:"operation"`
	Code      string         `gorm:"column:code;not null;index" json:"code"`
	Message   string         `gorm:"column:message" json:"message"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (IngestFailure) TableName() string { return "ingest_failure" }

func (f *IngestFailure) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// AllModels lists every table, in dependency order, for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Artist{},
		&Genre{},
		&Collection{},
		&Album{},
		&Playlist{},
		&Track{},
		&TrackPosition{},
		&ArtistTrack{},
		&GenreTrack{},
		&AlbumAuthor{},
		&IngestFailure{},
	}
}
