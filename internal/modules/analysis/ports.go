// Package analysis runs the outfit analysis pipeline: image intake, brand
// identification, report generation, alternative sourcing and the ordered
// persistence of the resulting wardrobe records.
package analysis

import (
	"context"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/openai"
)

// ObjectStore is satisfied by gcp.OutfitBucket and awss3.Store.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type TextGenerator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

type VisionGenerator interface {
	GenerateTextWithImages(ctx context.Context, system, user string, images []openai.ImageInput) (string, error)
}

type BrandSignalDetector interface {
	DetectBrandSignals(ctx context.Context, imageURI string) (*gcp.ImageSignals, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string, n int) ([]gcp.SearchResult, error)
}

// Outcome is a stage result. Fallback marks substitute data; Reason holds the
// failure that caused it, if any.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   error
}

func ok[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func fallback[T any](v T, reason error) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Reason: reason}
}

type BrandIdentifier interface {
	Identify(ctx context.Context, imageRef string) Outcome[wardrobe.BrandInfo]
}

type ReportGenerator interface {
	Generate(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[ReportPayload]
}

type AlternativeFinder interface {
	Find(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[[]AlternativeCandidate]
}

// QueryGenerator turns a garment description into a shopping search query.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, brand string, info wardrobe.BrandInfo) (string, error)
}
