package gcp

import (
	"testing"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
)

func TestResolveObjectStoragePublicBaseURLGCSDefault(t *testing.T) {
	baseURL, source := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode: ObjectStorageModeGCS,
	})
	if baseURL != "" {
		t.Fatalf("baseURL: want empty got=%q", baseURL)
	}
	if source != "gcs_default" {
		t.Fatalf("source: want=%q got=%q", "gcs_default", source)
	}
}

func TestResolveObjectStoragePublicBaseURLEmulatorFallback(t *testing.T) {
	baseURL, source := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443",
	})
	if baseURL != "http://fake-gcs:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://fake-gcs:4443", baseURL)
	}
	if source != "storage_emulator_host" {
		t.Fatalf("source: want=%q got=%q", "storage_emulator_host", source)
	}
}

func TestResolveObjectStoragePublicBaseURLOverride(t *testing.T) {
	baseURL, source := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:          ObjectStorageModeGCSEmulator,
		EmulatorHost:  "http://fake-gcs:4443",
		PublicBaseURL: "http://localhost:4443/",
	})
	if baseURL != "http://localhost:4443" {
		t.Fatalf("baseURL: want=%q got=%q", "http://localhost:4443", baseURL)
	}
	if source != "object_storage_public_base_url" {
		t.Fatalf("source: want=%q got=%q", "object_storage_public_base_url", source)
	}
}

func TestPublicURLGCSDefault(t *testing.T) {
	bs := &bucketService{
		buckets: map[BucketCategory]BucketConfig{BucketCategoryAudio: {Name: "audio-bucket"}},
	}
	got := bs.PublicURL(BucketCategoryAudio, "/audio/song1.mp3")
	want := "https://storage.googleapis.com/audio-bucket/audio/song1.mp3"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLCDN(t *testing.T) {
	bs := &bucketService{
		storageMode: ObjectStorageModeGCSEmulator,
		buckets: map[BucketCategory]BucketConfig{
			BucketCategoryTrackCover: {Name: "covers", CDNDomain: "cdn.example.com"},
		},
	}
	got := bs.PublicURL(BucketCategoryTrackCover, "covers/tracks/song1.jpg")
	want := "https://cdn.example.com/covers/tracks/song1.jpg"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLEmulatorEscapesKey(t *testing.T) {
	bs := &bucketService{
		storageMode:  ObjectStorageModeGCSEmulator,
		emulatorHost: "http://fake-gcs:4443",
		buckets:      map[BucketCategory]BucketConfig{BucketCategoryGenreCover: {Name: "genres"}},
	}
	got := bs.PublicURL(BucketCategoryGenreCover, "genres/hip-hop.png")
	want := "http://fake-gcs:4443/storage/v1/b/genres/o/genres%2Fhip-hop.png?alt=media"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestPublicURLPublicBase(t *testing.T) {
	bs := &bucketService{
		storageMode:   ObjectStorageModeGCS,
		publicBaseURL: "http://localhost:4443",
		buckets:       map[BucketCategory]BucketConfig{BucketCategoryAudio: {Name: "audio"}},
	}
	got := bs.PublicURL(BucketCategoryAudio, "audio/a.mp3")
	want := "http://localhost:4443/audio/audio/a.mp3"
	if got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}

func TestUploadUnknownCategoryIsConfigurationError(t *testing.T) {
	bs := &bucketService{buckets: map[BucketCategory]BucketConfig{}}
	_, err := bs.Upload(t.Context(), BucketCategoryAudio, "audio/a.mp3", []byte("x"), "")
	if !types.IsCode(err, types.CodeConfiguration) {
		t.Fatalf("Upload: want configuration error got=%v", err)
	}
}

func TestUploadRejectsEmptyPayload(t *testing.T) {
	bs := &bucketService{buckets: map[BucketCategory]BucketConfig{BucketCategoryAudio: {Name: "audio"}}}
	_, err := bs.Upload(t.Context(), BucketCategoryAudio, "audio/a.mp3", nil, "")
	if !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("Upload: want validation error got=%v", err)
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"audio/a.mp3":      "audio/mpeg",
		"covers/x.JPEG":    "image/jpeg",
		"genres/rock.webp": "image/webp",
		"covers/y.png?v=1": "image/png",
		"unknown/file.bin": "",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("contentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
