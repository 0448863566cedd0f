package gcp

import (
	"errors"
	"testing"
)

func fullBuckets() map[BucketCategory]BucketConfig {
	return map[BucketCategory]BucketConfig{
		BucketCategoryAudio:      {Name: "audio"},
		BucketCategoryTrackCover: {Name: "track-covers"},
		BucketCategoryGenreCover: {Name: "genre-covers"},
	}
}

func TestResolveObjectStorageModeDefaultGCS(t *testing.T) {
	mode, fallback, err := ResolveObjectStorageMode("", "")
	if err != nil {
		t.Fatalf("ResolveObjectStorageMode: %v", err)
	}
	if mode != ObjectStorageModeGCS || fallback {
		t.Fatalf("mode: want=%q fallback=false got=%q fallback=%v", ObjectStorageModeGCS, mode, fallback)
	}
}

func TestResolveObjectStorageModeExplicitGCSIgnoresEmulator(t *testing.T) {
	mode, fallback, err := ResolveObjectStorageMode("GCS", "http://fake-gcs:4443")
	if err != nil {
		t.Fatalf("ResolveObjectStorageMode: %v", err)
	}
	if mode != ObjectStorageModeGCS || fallback {
		t.Fatalf("mode: want=%q got=%q fallback=%v", ObjectStorageModeGCS, mode, fallback)
	}
}

func TestResolveObjectStorageModeCompatibilityFallback(t *testing.T) {
	mode, fallback, err := ResolveObjectStorageMode("", "http://fake-gcs:4443")
	if err != nil {
		t.Fatalf("ResolveObjectStorageMode: %v", err)
	}
	if mode != ObjectStorageModeGCSEmulator || !fallback {
		t.Fatalf("mode: want=%q fallback=true got=%q fallback=%v", ObjectStorageModeGCSEmulator, mode, fallback)
	}
}

func TestResolveObjectStorageModeInvalid(t *testing.T) {
	_, _, err := ResolveObjectStorageMode("s3", "")
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ObjectStorageConfigErrorInvalidMode {
		t.Fatalf("want invalid_mode error, got %v", err)
	}
}

func TestValidateObjectStorageConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  ObjectStorageConfig
		code ObjectStorageConfigErrorCode
	}{
		{
			name: "gcs ok",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, Buckets: fullBuckets()},
		},
		{
			name: "disabled needs nothing",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeDisabled},
		},
		{
			name: "missing bucket",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, Buckets: map[BucketCategory]BucketConfig{BucketCategoryAudio: {Name: "a"}}},
			code: ObjectStorageConfigErrorMissingBucket,
		},
		{
			name: "emulator without host",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, Buckets: fullBuckets()},
			code: ObjectStorageConfigErrorMissingEmulatorHost,
		},
		{
			name: "emulator host not a url",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443", Buckets: fullBuckets()},
			code: ObjectStorageConfigErrorInvalidEmulatorHost,
		},
		{
			name: "bad public base",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, PublicBaseURL: "localhost:4443", Buckets: fullBuckets()},
			code: ObjectStorageConfigErrorInvalidPublicBase,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateObjectStorageConfig(tc.cfg)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("ValidateObjectStorageConfig: %v", err)
				}
				return
			}
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Code != tc.code {
				t.Fatalf("want code=%q got=%v", tc.code, err)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	if got := ClientOptions(ObjectStorageConfig{}); len(got) != 0 {
		t.Fatalf("no credentials: want 0 options got=%d", len(got))
	}
	if got := ClientOptions(ObjectStorageConfig{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/x.json"}); len(got) != 1 {
		t.Fatalf("json credentials: want 1 option got=%d", len(got))
	}
	if got := ClientOptions(ObjectStorageConfig{CredentialsFile: "/etc/gcp/key.json"}); len(got) != 1 {
		t.Fatalf("file credentials: want 1 option got=%d", len(got))
	}
}
