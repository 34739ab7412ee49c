package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/fitprint-backend/internal/data/repos/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type ClothingItemRepo = wardrobe.ClothingItemRepo
type SustainabilityReportRepo = wardrobe.SustainabilityReportRepo
type AlternativeProductRepo = wardrobe.AlternativeProductRepo

type WardrobeStore = wardrobe.Store

func NewWardrobeStore(db *gorm.DB, baseLog *logger.Logger) *WardrobeStore {
	return wardrobe.NewStore(db, baseLog)
}
