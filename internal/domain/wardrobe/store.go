package wardrobe

import (
	"context"

	"github.com/google/uuid"
)

// Store is the typed create/get/update/scan contract over the persistence
// backend. Every method returns ErrNotFound (possibly wrapped) for a missing
// record. Scan methods return newest first; limit <= 0 means the backend default.
type Store interface {
	CreateClothingItem(ctx context.Context, item *ClothingItem) error
	GetClothingItem(ctx context.Context, id uuid.UUID) (*ClothingItem, error)
	UpdateClothingItem(ctx context.Context, id uuid.UUID, patch ClothingPatch) (*ClothingItem, error)
	DeleteClothingItem(ctx context.Context, id uuid.UUID) error
	ScanClothingItems(ctx context.Context, limit int) ([]*ClothingItem, error)
	ListClothingItemsByUser(ctx context.Context, userID string, limit int) ([]*ClothingItem, error)

	CreateReport(ctx context.Context, report *SustainabilityReport) error
	GetReport(ctx context.Context, id string) (*SustainabilityReport, error)
	ScanReports(ctx context.Context, limit int) ([]*SustainabilityReport, error)
	ListReportsByClothing(ctx context.Context, clothingID uuid.UUID) ([]*SustainabilityReport, error)
	// LinkReportAlternatives replaces the report's alternative_ids.
	LinkReportAlternatives(ctx context.Context, reportID string, alternativeIDs []string) error

	CreateAlternative(ctx context.Context, alt *AlternativeProduct) error
	GetAlternative(ctx context.Context, id uuid.UUID) (*AlternativeProduct, error)
	ListAlternativesByClothing(ctx context.Context, clothingID uuid.UUID) ([]*AlternativeProduct, error)
}

// DefaultScanLimit caps scans that do not specify a limit.
const DefaultScanLimit = 100

func ClampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultScanLimit
	}
	return limit
}
