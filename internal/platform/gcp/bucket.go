package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryAudio      BucketCategory = "audio"
	BucketCategoryTrackCover BucketCategory = "track_cover"
	BucketCategoryGenreCover BucketCategory = "genre_cover"
)

func AllBucketCategories() []BucketCategory {
	return []BucketCategory{BucketCategoryAudio, BucketCategoryTrackCover, BucketCategoryGenreCover}
}

// BlobStore uploads catalog assets and derives their public URLs. Uploading to
// an existing key overwrites the object.
type BlobStore interface {
	Upload(ctx context.Context, category BucketCategory, key string, data []byte, contentType string) (string, error)
	PublicURL(category BucketCategory, key string) string
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	buckets       map[BucketCategory]BucketConfig
	publicBaseURL string
	uploadTimeout time.Duration
}

func NewBlobStore(ctx context.Context, log *logger.Logger, storageCfg ObjectStorageConfig) (BlobStore, error) {
	if !storageCfg.Enabled() {
		return nil, types.ConfigurationError("storage.init", "object storage is disabled (OBJECT_STORAGE_MODE=disabled)")
	}
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BlobStore")

	publicBaseURL, publicBaseSource := resolveObjectStoragePublicBaseURL(storageCfg)

	stClient, err := newStorageClientForMode(ctx, storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	timeout := storageCfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"audio_bucket", storageCfg.Buckets[BucketCategoryAudio].Name,
		"track_cover_bucket", storageCfg.Buckets[BucketCategoryTrackCover].Name,
		"genre_cover_bucket", storageCfg.Buckets[BucketCategoryGenreCover].Name,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"),
		buckets:       storageCfg.Buckets,
		publicBaseURL: publicBaseURL,
		uploadTimeout: timeout,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(storageCfg)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		// the storage client only honours the emulator through the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(storageCfg.Mode),
		}
	}
}

func resolveObjectStoragePublicBaseURL(storageCfg ObjectStorageConfig) (baseURL string, source string) {
	if raw := strings.TrimSpace(storageCfg.PublicBaseURL); raw != "" {
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url"
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "storage_emulator_host"
	}
	return "", "gcs_default"
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (BucketConfig, error) {
	cfg, ok := bs.buckets[category]
	if !ok || strings.TrimSpace(cfg.Name) == "" {
		return BucketConfig{}, types.ConfigurationError("storage.bucket", fmt.Sprintf("unknown bucket category: %s", category))
	}
	return cfg, nil
}

func (bs *bucketService) Upload(ctx context.Context, category BucketCategory, key string, data []byte, contentType string) (string, error) {
	const op = "storage.upload"
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return "", err
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", types.ValidationError(op, string(category), "object key is empty")
	}
	if len(data) == 0 {
		return "", types.ValidationError(op, key, "refusing to upload an empty object")
	}

	ctx, cancel := context.WithTimeout(ctx, bs.uploadTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.Name).Object(key).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	} else if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", types.NewError(types.CodeStorage, op, key, "failed to write data to GCS", err)
	}
	if err := w.Close(); err != nil {
		return "", types.NewError(types.CodeStorage, op, key, "failed to close GCS writer", err)
	}

	publicURL := bs.PublicURL(category, key)
	bs.log.Debug("Object uploaded", "bucket", cfg.Name, "key", key, "bytes", len(data), "url", publicURL)
	return publicURL, nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(s, ".ogg"):
		return "audio/ogg"
	case strings.HasSuffix(s, ".flac"):
		return "audio/flac"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

func (bs *bucketService) PublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.publicEmulatorObjectMediaURL(cfg.Name, key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, cfg.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Name, key)
}

func (bs *bucketService) publicEmulatorObjectMediaURL(bucket, key string) string {
	base := strings.TrimRight(strings.TrimSpace(bs.publicBaseURL), "/")
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(bs.emulatorHost), "/")
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(bucket),
		url.PathEscape(key),
	)
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}
