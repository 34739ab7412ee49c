package wardrobe

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/dbctx"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type AlternativeProductRepo interface {
	Create(dbc dbctx.Context, alts []*types.AlternativeProduct) ([]*types.AlternativeProduct, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AlternativeProduct, error)
	ListByClothingID(dbc dbctx.Context, clothingID uuid.UUID) ([]*types.AlternativeProduct, error)
}

type alternativeProductRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlternativeProductRepo(db *gorm.DB, baseLog *logger.Logger) AlternativeProductRepo {
	return &alternativeProductRepo{db: db, log: baseLog.With("repo", "AlternativeProductRepo")}
}

func (r *alternativeProductRepo) Create(dbc dbctx.Context, alts []*types.AlternativeProduct) ([]*types.AlternativeProduct, error) {
	if len(alts) == 0 {
		return []*types.AlternativeProduct{}, nil
	}
	if err := dbc.Conn(r.db).Create(&alts).Error; err != nil {
		return nil, err
	}
	return alts, nil
}

func (r *alternativeProductRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AlternativeProduct, error) {
	var out types.AlternativeProduct
	err := dbc.Conn(r.db).Where("alternative_id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *alternativeProductRepo) ListByClothingID(dbc dbctx.Context, clothingID uuid.UUID) ([]*types.AlternativeProduct, error) {
	var out []*types.AlternativeProduct
	if err := dbc.Conn(r.db).
		Where("clothing_id = ?", clothingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
