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

	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/objectstorage"
)

type BucketConfig struct {
	Name      string
	CDNDomain string
	Storage   objectstorage.Config
	// Timeouts for a single object write/delete. Zero uses the defaults.
	WriteTimeout  time.Duration
	DeleteTimeout time.Duration
}

// OutfitBucket stores outfit photos in a single GCS bucket.
type OutfitBucket struct {
	log           *logger.Logger
	client        *storage.Client
	name          string
	cdnDomain     string
	mode          objectstorage.Mode
	emulatorHost  string
	publicBaseURL string
	writeTimeout  time.Duration
	deleteTimeout time.Duration
}

func NewOutfitBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*OutfitBucket, error) {
	if !cfg.Storage.IsGCS() {
		return nil, fmt.Errorf("gcs bucket requires gcs or gcs_emulator mode, got %q", cfg.Storage.Mode)
	}
	if err := objectstorage.Validate(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing env var OUTFIT_GCS_BUCKET_NAME")
	}
	serviceLog := log.With("service", "gcp.OutfitBucket")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.Storage)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClientForMode(ctxutil.Default(ctx), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"bucket", cfg.Name,
	)

	b := &OutfitBucket{
		log:           serviceLog,
		client:        client,
		name:          cfg.Name,
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		mode:          cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		publicBaseURL: publicBaseURL,
		writeTimeout:  cfg.WriteTimeout,
		deleteTimeout: cfg.DeleteTimeout,
	}
	if b.writeTimeout <= 0 {
		b.writeTimeout = 2 * time.Minute
	}
	if b.deleteTimeout <= 0 {
		b.deleteTimeout = 30 * time.Second
	}
	return b, nil
}

func newStorageClientForMode(ctx context.Context, cfg objectstorage.Config) (*storage.Client, error) {
	switch cfg.Mode {
	case objectstorage.ModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case objectstorage.ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &objectstorage.ConfigError{Code: objectstorage.ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func resolvePublicBaseURL(cfg objectstorage.Config) (baseURL string, source string, err error) {
	raw := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL"))
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf(
				"invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443",
				raw,
			)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (b *OutfitBucket) Bucket() string { return b.name }

// Put writes data under key and returns the object's public URL.
func (b *OutfitBucket) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), b.writeTimeout)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = objectstorage.ContentTypeForKey(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return b.PublicURL(key), nil
}

func (b *OutfitBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), b.deleteTimeout)
	defer cancel()
	if err := b.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, b.name, err)
	}
	return nil
}

// Size returns the stored object's size in bytes.
func (b *OutfitBucket) Size(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 30*time.Second)
	defer cancel()
	attrs, err := b.client.Bucket(b.name).Object(key).Attrs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return attrs.Size, nil
}

func (b *OutfitBucket) PublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	if objectstorage.IsEmulatorMode(b.mode) {
		base := b.publicBaseURL
		if base == "" {
			base = b.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(b.name), url.PathEscape(key))
		}
	}
	if b.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", b.publicBaseURL, b.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}

func (b *OutfitBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}
