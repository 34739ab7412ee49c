package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/objectstorage"
)

// ImageRef is what intake hands to the rest of the pipeline.
type ImageRef struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Bucket      string `json:"bucket"`
	Processed   bool   `json:"processed"`
	Placeholder bool   `json:"placeholder"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`

	// Degradations absorbed during intake, in the order they happened.
	Degradations []Degraded `json:"-"`
}

type IntakeConfig struct {
	// Strict turns a failed object write into a fatal intake failure instead
	// of a placeholder reference.
	Strict       bool
	WriteTimeout time.Duration
}

type ImageIntake struct {
	log   *logger.Logger
	store ObjectStore
	cfg   IntakeConfig
	now   func() time.Time
}

func NewImageIntake(log *logger.Logger, store ObjectStore, cfg IntakeConfig) (*ImageIntake, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &ImageIntake{
		log:   log.With("service", "ImageIntake"),
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

// Intake normalizes the image and writes exactly one object. Processing
// failures store the original bytes; storage failures yield a placeholder
// reference unless the intake is strict.
func (in *ImageIntake) Intake(ctx context.Context, userID string, data []byte, filename string) (ImageRef, error) {
	if len(data) == 0 {
		return ImageRef{}, errors.New("empty image")
	}
	if strings.TrimSpace(userID) == "" {
		return ImageRef{}, errors.New("missing user id")
	}

	key := ObjectKey(userID, filename, in.now())
	ref := ImageRef{Key: key, Bucket: in.store.Bucket()}

	body, contentType := data, objectstorage.ContentTypeForKey(key)
	if processed, size, err := normalizeImage(data); err != nil {
		in.log.Warn("Image processing failed; storing original bytes", "key", key, "error", err)
		ref.Degradations = append(ref.Degradations, Degraded{Kind: DegradedIntakeProcessing, Err: err})
	} else {
		body, contentType = processed, "image/jpeg"
		ref.Processed = true
		ref.Width, ref.Height = size.X, size.Y
	}

	putCtx, cancel := context.WithTimeout(ctx, in.cfg.WriteTimeout)
	defer cancel()
	url, err := in.store.Put(putCtx, key, body, contentType)
	if err != nil {
		if in.cfg.Strict {
			return ImageRef{}, fmt.Errorf("store image %s: %w", key, err)
		}
		in.log.Warn("Image upload failed; using placeholder reference", "key", key, "bucket", ref.Bucket, "error", err)
		ref.URL = objectstorage.PlaceholderURL(ref.Bucket, key)
		ref.Placeholder = true
		ref.Degradations = append(ref.Degradations, Degraded{Kind: DegradedIntakeStorage, Err: err})
		return ref, nil
	}
	ref.URL = url
	in.log.Debug("Stored outfit image", "key", key, "bytes", len(body), "processed", ref.Processed)
	return ref, nil
}
