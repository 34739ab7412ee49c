// Package wardrobe holds the entities produced by an outfit analysis: the
// photographed clothing item, its sustainability report and the greener
// alternatives suggested for it.
package wardrobe

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrNotFound is returned by every store backend when a record does not exist.
var ErrNotFound = errors.New("wardrobe: record not found")

// FallbackBrand is used whenever a brand could not be identified.
const FallbackBrand = "Unknown Brand"

// MaxAlternatives bounds both the candidates carried through the pipeline and
// a report's alternative_ids.
const MaxAlternatives = 3

const (
	CategoryMaterialOrigin    = "material_origin"
	CategoryProductionImpact  = "production_impact"
	CategoryLaborEthics       = "labor_ethics"
	CategoryEndOfLife         = "end_of_life"
	CategoryBrandTransparency = "brand_transparency"
)

// CategoryKeys lists the five report categories in display order.
var CategoryKeys = []string{
	CategoryMaterialOrigin,
	CategoryProductionImpact,
	CategoryLaborEthics,
	CategoryEndOfLife,
	CategoryBrandTransparency,
}

// RegionCodes are the only keys allowed in RegionalAlerts.
var RegionCodes = []string{"EU", "CA", "US", "UK"}

func IsRegionCode(code string) bool {
	for _, r := range RegionCodes {
		if r == code {
			return true
		}
	}
	return false
}

type CategoryScore struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

type Categories map[string]CategoryScore

// RegionalAlerts maps a region code to an optional alert. A nil value means
// the region was assessed and has nothing to report.
type RegionalAlerts map[string]*string

type BrandInfo struct {
	Brand              string  `json:"brand"`
	ProductTitle       string  `json:"product_title"`
	ProductDescription string  `json:"product_description"`
	Confidence         float64 `json:"confidence"`
}

type ClothingItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;column:clothing_id" json:"clothing_id"`
	UserID      string    `gorm:"not null;index;column:user_id" json:"user_id"`
	Brand       string    `gorm:"not null;column:brand" json:"brand"`
	ImageURL    string    `gorm:"not null;column:image_file" json:"image_file"`
	ImageKey    string    `gorm:"column:image_key" json:"image_key,omitempty"`
	ImageBucket string    `gorm:"column:image_bucket" json:"image_bucket,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (ClothingItem) TableName() string { return "clothing_item" }

// ClothingPatch carries the corrections allowed after creation.
type ClothingPatch struct {
	Brand    *string `json:"brand,omitempty"`
	ImageURL *string `json:"image_file,omitempty"`
}

func (p ClothingPatch) Empty() bool { return p.Brand == nil && p.ImageURL == nil }

type SustainabilityReport struct {
	ID                 string                             `gorm:"primaryKey;column:report_id" json:"report_id"`
	ClothingID         uuid.UUID                          `gorm:"type:uuid;not null;index;column:clothing_id" json:"clothing_id"`
	Brand              string                             `gorm:"not null;column:brand" json:"brand"`
	Categories         datatypes.JSONType[Categories]     `gorm:"column:categories" json:"categories"`
	OverallScore       float64                            `gorm:"not null;column:overall_score" json:"overall_score"`
	OverallDescription string                             `gorm:"column:overall_description" json:"overall_description"`
	RegionalAlerts     datatypes.JSONType[RegionalAlerts] `gorm:"column:regional_alerts" json:"regional_alerts"`
	AlternativeIDs     datatypes.JSONSlice[string]        `gorm:"column:alternative_ids" json:"alternative_ids"`
	CreatedAt          time.Time                          `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time                          `gorm:"not null" json:"updated_at"`
}

func (SustainabilityReport) TableName() string { return "sustainability_report" }

type AlternativeProduct struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;column:alternative_id" json:"alternative_id"`
	ClothingID          uuid.UUID `gorm:"type:uuid;not null;index;column:clothing_id" json:"clothing_id"`
	Name                string    `gorm:"not null;column:name" json:"name"`
	Brand               string    `gorm:"not null;column:brand" json:"brand"`
	ImageURL            string    `gorm:"column:image_url" json:"image_url"`
	SustainabilityScore float64   `gorm:"column:sustainability_score" json:"sustainability_score"`
	Link                string    `gorm:"column:link" json:"link"`
	WhySustainable      string    `gorm:"column:why_sustainable" json:"why_sustainable"`
	CreatedAt           time.Time `gorm:"not null;index" json:"created_at"`
}

func (AlternativeProduct) TableName() string { return "alternative_product" }

// ScoreSummary aggregates overall scores across reports.
type ScoreSummary struct {
	TotalReports int               `json:"total_reports"`
	AverageScore float64           `json:"average_score"`
	HighestScore float64           `json:"highest_score"`
	LowestScore  float64           `json:"lowest_score"`
	Distribution ScoreDistribution `json:"score_distribution"`
}

type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// Summarize buckets reports as excellent (>=4), good (3-4), fair (2-3) and poor (<2).
func Summarize(reports []*SustainabilityReport) ScoreSummary {
	out := ScoreSummary{}
	var sum float64
	for _, r := range reports {
		if r == nil {
			continue
		}
		s := r.OverallScore
		if out.TotalReports == 0 || s > out.HighestScore {
			out.HighestScore = s
		}
		if out.TotalReports == 0 || s < out.LowestScore {
			out.LowestScore = s
		}
		out.TotalReports++
		sum += s
		switch {
		case s >= 4:
			out.Distribution.Excellent++
		case s >= 3:
			out.Distribution.Good++
		case s >= 2:
			out.Distribution.Fair++
		default:
			out.Distribution.Poor++
		}
	}
	if out.TotalReports > 0 {
		out.AverageScore = sum / float64(out.TotalReports)
	}
	return out
}
