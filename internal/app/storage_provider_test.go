package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/fitprint-backend/internal/platform/awss3"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/objectstorage"
)

type stubObjectStore struct {
	bucket string
	closed bool
}

func (s *stubObjectStore) Bucket() string { return s.bucket }

func (s *stubObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (s *stubObjectStore) Delete(ctx context.Context, key string) error { return nil }

func (s *stubObjectStore) Close() error {
	s.closed = true
	return nil
}

func stubStoreConstructors(t *testing.T) (*gcp.BucketConfig, *awss3.Config) {
	t.Helper()
	origGCS, origS3 := newOutfitBucket, newS3Store
	t.Cleanup(func() {
		newOutfitBucket, newS3Store = origGCS, origS3
	})
	var gcsCfg gcp.BucketConfig
	var s3Cfg awss3.Config
	newOutfitBucket = func(_ context.Context, _ *logger.Logger, cfg gcp.BucketConfig) (ObjectStore, error) {
		gcsCfg = cfg
		return &stubObjectStore{bucket: cfg.Name}, nil
	}
	newS3Store = func(_ context.Context, _ *logger.Logger, cfg awss3.Config) (ObjectStore, error) {
		s3Cfg = cfg
		return &stubObjectStore{bucket: cfg.Bucket}, nil
	}
	return &gcsCfg, &s3Cfg
}

func wantBootstrapCode(t *testing.T, err error, code StorageProviderBootstrapErrorCode) {
	t.Helper()
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	if got.Code != code {
		t.Fatalf("code: want=%q got=%q", code, got.Code)
	}
}

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		src  error
		want StorageProviderBootstrapErrorCode
	}{
		{&objectstorage.ConfigError{Code: objectstorage.ConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{&objectstorage.ConfigError{Code: objectstorage.ConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{&objectstorage.ConfigError{Code: objectstorage.ConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{&objectstorage.ConfigError{Code: objectstorage.ConfigErrorInvalidS3Endpoint}, StorageProviderBootstrapErrorInvalidS3Endpoint},
		{errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		err := classifyStorageProviderBootstrapError(objectstorage.Config{Mode: objectstorage.ModeGCS}, tc.src)
		wantBootstrapCode(t, err, tc.want)
		if !errors.Is(err, tc.src) {
			t.Fatalf("cause: want %v wrapped", tc.src)
		}
	}
}

func TestResolveObjectStoreInvalidMode(t *testing.T) {
	stubStoreConstructors(t)
	_, err := resolveObjectStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "invalid"})
	wantBootstrapCode(t, err, StorageProviderBootstrapErrorInvalidMode)
}

func TestResolveObjectStoreGCSMode(t *testing.T) {
	gcsCfg, _ := stubStoreConstructors(t)
	got, err := resolveObjectStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: "gcs",
		OutfitBucketName:  "outfits",
		OutfitCDNDomain:   "cdn.fitprint.test",
	})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if got.Bucket() != "outfits" {
		t.Fatalf("bucket: want=outfits got=%q", got.Bucket())
	}
	if gcsCfg.Storage.Mode != objectstorage.ModeGCS || gcsCfg.CDNDomain != "cdn.fitprint.test" {
		t.Fatalf("config: unexpected %+v", *gcsCfg)
	}
}

func TestResolveObjectStoreEmulatorCompatibilityFallback(t *testing.T) {
	gcsCfg, _ := stubStoreConstructors(t)
	_, err := resolveObjectStore(context.Background(), logger.Nop(), Config{
		StorageEmulatorHost: "http://fake-gcs:4443",
		OutfitBucketName:    "outfits",
	})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if gcsCfg.Storage.Mode != objectstorage.ModeGCSEmulator || !gcsCfg.Storage.CompatibilityFallback {
		t.Fatalf("storage: want emulator compatibility fallback, got %+v", gcsCfg.Storage)
	}
}

func TestResolveObjectStoreEmulatorHostErrors(t *testing.T) {
	stubStoreConstructors(t)
	_, err := resolveObjectStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "gcs_emulator"})
	wantBootstrapCode(t, err, StorageProviderBootstrapErrorMissingEmulatorHost)

	_, err = resolveObjectStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode:   "gcs_emulator",
		StorageEmulatorHost: "not-a-url",
	})
	wantBootstrapCode(t, err, StorageProviderBootstrapErrorInvalidEmulatorHost)
}

func TestResolveObjectStoreS3Mode(t *testing.T) {
	_, s3Cfg := stubStoreConstructors(t)
	got, err := resolveObjectStore(context.Background(), logger.Nop(), Config{
		ObjectStorageMode: "S3",
		S3BucketName:      "outfits-s3",
		S3Region:          "eu-west-1",
		S3Endpoint:        "http://minio:9000",
	})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if got.Bucket() != "outfits-s3" || s3Cfg.Region != "eu-west-1" || s3Cfg.Endpoint != "http://minio:9000" {
		t.Fatalf("s3 config: unexpected %+v", *s3Cfg)
	}

	_, err = resolveObjectStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "s3", S3Endpoint: "minio:9000"})
	wantBootstrapCode(t, err, StorageProviderBootstrapErrorInvalidS3Endpoint)
}

func TestResolveObjectStoreConnectFailed(t *testing.T) {
	stubStoreConstructors(t)
	newOutfitBucket = func(context.Context, *logger.Logger, gcp.BucketConfig) (ObjectStore, error) {
		return nil, errors.New("missing env var OUTFIT_GCS_BUCKET_NAME")
	}
	_, err := resolveObjectStore(context.Background(), logger.Nop(), Config{ObjectStorageMode: "gcs"})
	wantBootstrapCode(t, err, StorageProviderBootstrapErrorConnectFailed)
}
