package wardrobe

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/dbctx"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type SustainabilityReportRepo interface {
	Create(dbc dbctx.Context, reports []*types.SustainabilityReport) ([]*types.SustainabilityReport, error)
	GetByID(dbc dbctx.Context, id string) (*types.SustainabilityReport, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.SustainabilityReport, error)
	ListByClothingID(dbc dbctx.Context, clothingID uuid.UUID) ([]*types.SustainabilityReport, error)
	SetAlternativeIDs(dbc dbctx.Context, id string, alternativeIDs []string) error
}

type sustainabilityReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSustainabilityReportRepo(db *gorm.DB, baseLog *logger.Logger) SustainabilityReportRepo {
	return &sustainabilityReportRepo{db: db, log: baseLog.With("repo", "SustainabilityReportRepo")}
}

func (r *sustainabilityReportRepo) Create(dbc dbctx.Context, reports []*types.SustainabilityReport) ([]*types.SustainabilityReport, error) {
	if len(reports) == 0 {
		return []*types.SustainabilityReport{}, nil
	}
	for _, rep := range reports {
		if rep.AlternativeIDs == nil {
			rep.AlternativeIDs = datatypes.JSONSlice[string]{}
		}
	}
	if err := dbc.Conn(r.db).Create(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *sustainabilityReportRepo) GetByID(dbc dbctx.Context, id string) (*types.SustainabilityReport, error) {
	var out types.SustainabilityReport
	err := dbc.Conn(r.db).Where("report_id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sustainabilityReportRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.SustainabilityReport, error) {
	var out []*types.SustainabilityReport
	if err := dbc.Conn(r.db).
		Order("created_at DESC").
		Limit(types.ClampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sustainabilityReportRepo) ListByClothingID(dbc dbctx.Context, clothingID uuid.UUID) ([]*types.SustainabilityReport, error) {
	var out []*types.SustainabilityReport
	if err := dbc.Conn(r.db).
		Where("clothing_id = ?", clothingID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sustainabilityReportRepo) SetAlternativeIDs(dbc dbctx.Context, id string, alternativeIDs []string) error {
	ids := datatypes.JSONSlice[string](append([]string{}, alternativeIDs...))
	res := dbc.Conn(r.db).
		Model(&types.SustainabilityReport{}).
		Where("report_id = ?", id).
		Updates(map[string]interface{}{
			"alternative_ids": ids,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
