package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// FeedTrack is one externally sourced track record, already normalized.
type FeedTrack struct {
	ExternalID      string   `json:"external_id"`
	Name            string   `json:"name"`
	Artists         []string `json:"artists"`
	Album           string   `json:"album"`
	DurationSeconds int      `json:"duration_seconds"`
	AudioURL        string   `json:"audio_url"`
	ImageURL        string   `json:"image_url,omitempty"`
	LicenseURL      string   `json:"license_url"`
	ReleaseDate     string   `json:"release_date"`
	Genres          []string `json:"genres"`
}

// FeedPage is one page of the external track listing.
type FeedPage struct {
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
	Total   int         `json:"total"`
	Records []FeedTrack `json:"records"`
}

// NextOffset is the offset of the page following p.
func (p FeedPage) NextOffset() int {
	return p.Offset + len(p.Records)
}

// Exhausted reports whether the feed has no records past p.
func (p FeedPage) Exhausted() bool {
	if len(p.Records) == 0 || len(p.Records) < p.Limit {
		return true
	}
	return p.Total > 0 && p.NextOffset() >= p.Total
}

// Validate checks the fields ingestion cannot proceed without.
func (t FeedTrack) Validate() error {
	const op = "feed.validate"
	if strings.TrimSpace(t.Name) == "" {
		return ValidationError(op, t.ExternalID, "track name is empty")
	}
	if len(CleanNames(t.Artists)) == 0 {
		return ValidationError(op, t.Name, "no artist names")
	}
	if strings.TrimSpace(t.Album) == "" {
		return ValidationError(op, t.Name, "album name is empty")
	}
	if t.DurationSeconds < 0 {
		return ValidationError(op, t.Name, "negative duration")
	}
	if strings.TrimSpace(t.AudioURL) == "" {
		return ValidationError(op, t.Name, "no audio asset reference")
	}
	return nil
}

// CleanNames trims names, drops blanks and removes exact duplicates, keeping order.
func CleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

type ArtistRef struct {
	ID   uuid.UUID
	Name string
}

type GenreRef struct {
	ID   uuid.UUID
	Name string
}

type AlbumRef struct {
	ID   uuid.UUID
	Name string
}

type TrackRef struct {
	ID       uuid.UUID
	Name     string
	AlbumID  uuid.UUID
	Position int
}
