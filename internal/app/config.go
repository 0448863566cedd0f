package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	"github.com/echobeat/catalog-seeder/internal/clients/jamendo"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
	"github.com/echobeat/catalog-seeder/internal/platform/envutil"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
}

type BucketsConfig struct {
	Audio      gcp.BucketConfig `yaml:"audio"`
	TrackCover gcp.BucketConfig `yaml:"track_cover"`
	GenreCover gcp.BucketConfig `yaml:"genre_cover"`
}

type StorageConfig struct {
	Mode            string        `yaml:"mode"`
	EmulatorHost    string        `yaml:"emulator_host"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	CredentialsJSON string        `yaml:"-"`
	CredentialsFile string        `yaml:"credentials_file"`
	UploadTimeout   time.Duration `yaml:"upload_timeout"`
	Buckets         BucketsConfig `yaml:"buckets"`
}

type FeedConfig struct {
	ClientID string        `yaml:"-"`
	BaseURL  string        `yaml:"base_url"`
	Name     string        `yaml:"name"`
	PageSize int           `yaml:"page_size"`
	License  string        `yaml:"license"`
	Timeout  time.Duration `yaml:"timeout"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PipelineConfig struct {
	CoverMaxDim    int    `yaml:"cover_max_dim"`
	PlaylistAuthor string `yaml:"playlist_author"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"-"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Environment string  `yaml:"environment"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
	File string `yaml:"file"`
}

// Config is resolved once per process: defaults, then the optional YAML file,
// then environment variables. Secrets are only read from the environment.
type Config struct {
	LogMode  string         `yaml:"log_mode"`
	LockFile string         `yaml:"lock_file"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Feed     FeedConfig     `yaml:"feed"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  catalog.Config `yaml:"catalog"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Otel     OtelConfig     `yaml:"otel"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	storage gcp.ObjectStorageConfig
}

func DefaultConfig() Config {
	pc := pipeline.DefaultConfig()
	return Config{
		LogMode:  "development",
		LockFile: os.TempDir() + "/catalog-seeder.lock",
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			SlowThreshold:   time.Second,
		},
		Storage: StorageConfig{
			UploadTimeout: 2 * time.Minute,
			Buckets: BucketsConfig{
				Audio:      gcp.BucketConfig{Name: "catalog-audio"},
				TrackCover: gcp.BucketConfig{Name: "catalog-track-covers"},
				GenreCover: gcp.BucketConfig{Name: "catalog-genre-covers"},
			},
		},
		Feed: FeedConfig{
			BaseURL:  jamendo.DefaultBaseURL,
			Name:     pc.FeedName,
			PageSize: pc.PageSize,
			Timeout:  30 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:  60 * time.Second,
			MaxBytes: 64 << 20,
		},
		Redis:   RedisConfig{Prefix: "catalog:cursor"},
		Catalog: catalog.DefaultConfig(),
		Pipeline: PipelineConfig{
			CoverMaxDim:    pc.CoverMaxDim,
			PlaylistAuthor: pc.PlaylistAuthor,
		},
		Otel: OtelConfig{SampleRatio: 0.1, Environment: "local"},
	}
}

// LoadConfig builds the process configuration. path may be empty; then
// CATALOG_CONFIG names the YAML file, and without it only the environment is
// read.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		path = envutil.String(log, "CATALOG_CONFIG", "")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	cfg.applyEnv(log)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.NewError(types.CodeConfiguration, "config.load", path, "read config file", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return types.NewError(types.CodeConfiguration, "config.load", path, "parse config file", err)
	}
	return nil
}

func (c *Config) applyEnv(log *logger.Logger) {
	c.LogMode = envutil.String(log, "LOG_MODE", c.LogMode)
	c.LockFile = envutil.String(log, "CATALOG_LOCK_FILE", c.LockFile)

	c.Database.URL = envutil.String(log, "DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = envutil.Int(log, "DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = envutil.Int(log, "DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = envutil.Duration(log, "DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.SlowThreshold = envutil.Duration(log, "DB_SLOW_THRESHOLD", c.Database.SlowThreshold)

	c.Storage.Mode = envutil.String(log, "OBJECT_STORAGE_MODE", c.Storage.Mode)
	c.Storage.EmulatorHost = envutil.String(log, "STORAGE_EMULATOR_HOST", c.Storage.EmulatorHost)
	c.Storage.PublicBaseURL = envutil.String(log, "OBJECT_STORAGE_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)
	c.Storage.CredentialsJSON = envutil.String(log, "GCS_CREDENTIALS_JSON", c.Storage.CredentialsJSON)
	c.Storage.CredentialsFile = envutil.String(log, "GOOGLE_APPLICATION_CREDENTIALS", c.Storage.CredentialsFile)
	c.Storage.UploadTimeout = envutil.Duration(log, "OBJECT_STORAGE_UPLOAD_TIMEOUT", c.Storage.UploadTimeout)
	c.Storage.Buckets.Audio.Name = envutil.String(log, "AUDIO_BUCKET", c.Storage.Buckets.Audio.Name)
	c.Storage.Buckets.Audio.CDNDomain = envutil.String(log, "AUDIO_CDN_DOMAIN", c.Storage.Buckets.Audio.CDNDomain)
	c.Storage.Buckets.TrackCover.Name = envutil.String(log, "TRACK_COVER_BUCKET", c.Storage.Buckets.TrackCover.Name)
	c.Storage.Buckets.TrackCover.CDNDomain = envutil.String(log, "TRACK_COVER_CDN_DOMAIN", c.Storage.Buckets.TrackCover.CDNDomain)
	c.Storage.Buckets.GenreCover.Name = envutil.String(log, "GENRE_COVER_BUCKET", c.Storage.Buckets.GenreCover.Name)
	c.Storage.Buckets.GenreCover.CDNDomain = envutil.String(log, "GENRE_COVER_CDN_DOMAIN", c.Storage.Buckets.GenreCover.CDNDomain)

	c.Feed.ClientID = envutil.String(log, "JAMENDO_CLIENT_ID", c.Feed.ClientID)
	c.Feed.BaseURL = envutil.String(log, "JAMENDO_BASE_URL", c.Feed.BaseURL)
	c.Feed.PageSize = envutil.Int(log, "FEED_PAGE_SIZE", c.Feed.PageSize)
	c.Feed.License = envutil.String(log, "FEED_LICENSE", c.Feed.License)
	c.Feed.Timeout = envutil.Duration(log, "FEED_TIMEOUT", c.Feed.Timeout)

	c.Fetch.Timeout = envutil.Duration(log, "ASSET_FETCH_TIMEOUT", c.Fetch.Timeout)
	c.Fetch.MaxBytes = int64(envutil.Int(log, "ASSET_MAX_BYTES", int(c.Fetch.MaxBytes)))
	c.Fetch.UserAgent = envutil.String(log, "ASSET_USER_AGENT", c.Fetch.UserAgent)

	c.Redis.Addr = envutil.String(log, "REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String(log, "REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.Int(log, "REDIS_DB", c.Redis.DB)

	c.Catalog.DefaultImage = envutil.String(log, "CATALOG_DEFAULT_IMAGE", c.Catalog.DefaultImage)
	c.Catalog.DefaultBiography = envutil.String(log, "CATALOG_DEFAULT_BIOGRAPHY", c.Catalog.DefaultBiography)

	c.Pipeline.CoverMaxDim = envutil.Int(log, "COVER_MAX_DIM", c.Pipeline.CoverMaxDim)
	c.Pipeline.PlaylistAuthor = envutil.String(log, "PLAYLIST_AUTHOR", c.Pipeline.PlaylistAuthor)

	c.Otel.Enabled = envutil.Bool(log, "OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.Endpoint = envutil.String(log, "OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String(log, "OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool(log, "OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	c.Otel.SampleRatio = envutil.Float(log, "OTEL_SAMPLER_RATIO", c.Otel.SampleRatio)
	c.Otel.Environment = envutil.String(log, "APP_ENV", c.Otel.Environment)

	c.Metrics.Addr = envutil.String(log, "METRICS_ADDR", c.Metrics.Addr)
	c.Metrics.File = envutil.String(log, "METRICS_FILE", c.Metrics.File)
}

// Validate checks what every command needs. Feed and storage settings are
// checked by the components that use them.
func (c *Config) Validate() error {
	const op = "config.validate"
	if strings.TrimSpace(c.Database.URL) == "" {
		return types.ConfigurationError(op, "DATABASE_URL is required")
	}
	if c.Feed.PageSize < 1 || c.Feed.PageSize > 200 {
		return types.ConfigurationError(op, fmt.Sprintf("feed page size must be within 1..200, got %d", c.Feed.PageSize))
	}
	if c.Pipeline.CoverMaxDim < 0 {
		return types.ConfigurationError(op, "cover max dimension must not be negative")
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		return types.ConfigurationError(op, "OTEL_SAMPLER_RATIO must be between 0 and 1")
	}

	mode, fallback, err := gcp.ResolveObjectStorageMode(c.Storage.Mode, c.Storage.EmulatorHost)
	if err != nil {
		return types.NewError(types.CodeConfiguration, op, "", err.Error(), err)
	}
	storage := gcp.ObjectStorageConfig{
		Mode:            mode,
		EmulatorHost:    strings.TrimSpace(c.Storage.EmulatorHost),
		PublicBaseURL:   strings.TrimSpace(c.Storage.PublicBaseURL),
		CredentialsJSON: c.Storage.CredentialsJSON,
		CredentialsFile: strings.TrimSpace(c.Storage.CredentialsFile),
		UploadTimeout:   c.Storage.UploadTimeout,
		Buckets: map[gcp.BucketCategory]gcp.BucketConfig{
			gcp.BucketCategoryAudio:      c.Storage.Buckets.Audio,
			gcp.BucketCategoryTrackCover: c.Storage.Buckets.TrackCover,
			gcp.BucketCategoryGenreCover: c.Storage.Buckets.GenreCover,
		},
		CompatibilityFallback: fallback,
	}
	if err := gcp.ValidateObjectStorageConfig(storage); err != nil {
		return types.NewError(types.CodeConfiguration, op, "", err.Error(), err)
	}
	c.storage = storage
	return nil
}

// ObjectStorage is the resolved storage configuration. It is only set after
// Validate succeeds.
func (c Config) ObjectStorage() gcp.ObjectStorageConfig { return c.storage }

func (c Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		FeedName:       c.Feed.Name,
		PageSize:       c.Feed.PageSize,
		CoverMaxDim:    c.Pipeline.CoverMaxDim,
		PlaylistAuthor: c.Pipeline.PlaylistAuthor,
	}
}
