package catalog

import "strings"

// Config carries the placeholder values new rows are created with.
type Config struct {
	DefaultBiography    string `yaml:"default_biography"`
	DefaultImage        string `yaml:"default_image"`
	AlbumDescription    string `yaml:"album_description"`
	PlaylistDescription string `yaml:"playlist_description"`
}

func DefaultConfig() Config {
	return Config{
		DefaultBiography:    "Biography not available",
		DefaultImage:        "default",
		AlbumDescription:    "Music album",
		PlaylistDescription: "Genre playlist",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.DefaultBiography) == "" {
		c.DefaultBiography = d.DefaultBiography
	}
	if strings.TrimSpace(c.DefaultImage) == "" {
		c.DefaultImage = d.DefaultImage
	}
	if strings.TrimSpace(c.AlbumDescription) == "" {
		c.AlbumDescription = d.AlbumDescription
	}
	if strings.TrimSpace(c.PlaylistDescription) == "" {
		c.PlaylistDescription = d.PlaylistDescription
	}
	return c
}
