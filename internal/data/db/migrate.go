package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&wardrobe.ClothingItem{},
		&wardrobe.SustainabilityReport{},
		&wardrobe.AlternativeProduct{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
