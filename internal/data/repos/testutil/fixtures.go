package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
)

func SeedClothingItem(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, brand string) *types.ClothingItem {
	tb.Helper()
	item := &types.ClothingItem{
		ID:       uuid.New(),
		UserID:   userID,
		Brand:    brand,
		ImageURL: "https://cdn.example.com/outfits/" + userID + "/photo.jpg",
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed clothing item: %v", err)
	}
	return item
}

func SeedReport(tb testing.TB, ctx context.Context, tx *gorm.DB, clothingID uuid.UUID, id string, overall float64) *types.SustainabilityReport {
	tb.Helper()
	cats := types.Categories{}
	for _, k := range types.CategoryKeys {
		cats[k] = types.CategoryScore{Score: 3, Description: k}
	}
	rep := &types.SustainabilityReport{
		ID:                 id,
		ClothingID:         clothingID,
		Brand:              "Patagonia",
		Categories:         datatypes.NewJSONType(cats),
		OverallScore:       overall,
		OverallDescription: "seeded",
		RegionalAlerts:     datatypes.NewJSONType(types.RegionalAlerts{}),
		AlternativeIDs:     datatypes.JSONSlice[string]{},
	}
	if err := tx.WithContext(ctx).Create(rep).Error; err != nil {
		tb.Fatalf("seed report: %v", err)
	}
	return rep
}

func PtrString(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
