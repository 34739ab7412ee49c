package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/platform/awss3"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/objectstorage"
)

// ObjectStore is the outfit photo store the app hands to intake and to the
// wardrobe service.
type ObjectStore interface {
	analysis.ObjectStore
}

var (
	newOutfitBucket = func(ctx context.Context, log *logger.Logger, cfg gcp.BucketConfig) (ObjectStore, error) {
		return gcp.NewOutfitBucket(ctx, log, cfg)
	}
	newS3Store = func(ctx context.Context, log *logger.Logger, cfg awss3.Config) (ObjectStore, error) {
		return awss3.New(ctx, log, cfg)
	}
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorInvalidS3Endpoint   StorageProviderBootstrapErrorCode = "invalid_s3_endpoint"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func storageConfig(cfg Config) objectstorage.Config {
	sc := objectstorage.Config{
		Mode:         objectstorage.Mode(strings.ToLower(strings.TrimSpace(cfg.ObjectStorageMode))),
		EmulatorHost: strings.TrimSpace(cfg.StorageEmulatorHost),
		S3Endpoint:   strings.TrimSpace(cfg.S3Endpoint),
	}
	if sc.Mode == "" {
		if sc.EmulatorHost != "" {
			sc.Mode = objectstorage.ModeGCSEmulator
			sc.CompatibilityFallback = true
		} else {
			sc.Mode = objectstorage.ModeGCS
		}
	}
	return sc
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg Config) (ObjectStore, error) {
	storageCfg := storageConfig(cfg)
	modeSource := storageCfg.ModeSource()

	if err := objectstorage.Validate(storageCfg); err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", modeSource,
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	var (
		store ObjectStore
		err   error
	)
	if storageCfg.IsGCS() {
		store, err = newOutfitBucket(ctx, log, gcp.BucketConfig{
			Name:         cfg.OutfitBucketName,
			CDNDomain:    cfg.OutfitCDNDomain,
			Storage:      storageCfg,
			WriteTimeout: cfg.Timeouts.StoreWrite,
		})
	} else {
		store, err = newS3Store(ctx, log, awss3.Config{
			Bucket:          cfg.S3BucketName,
			Region:          cfg.S3Region,
			Endpoint:        storageCfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PublicBaseURL:   cfg.PublicBaseURL,
			WriteTimeout:    cfg.Timeouts.StoreWrite,
		})
	}
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", modeSource,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstorage.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstorage.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstorage.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstorage.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstorage.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case objectstorage.ConfigErrorInvalidS3Endpoint:
			code = StorageProviderBootstrapErrorInvalidS3Endpoint
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
