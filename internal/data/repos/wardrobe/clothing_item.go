package wardrobe

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/dbctx"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type ClothingItemRepo interface {
	Create(dbc dbctx.Context, items []*types.ClothingItem) ([]*types.ClothingItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClothingItem, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.ClothingItem, error)
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ClothingItem, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type clothingItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClothingItemRepo(db *gorm.DB, baseLog *logger.Logger) ClothingItemRepo {
	return &clothingItemRepo{db: db, log: baseLog.With("repo", "ClothingItemRepo")}
}

func (r *clothingItemRepo) Create(dbc dbctx.Context, items []*types.ClothingItem) ([]*types.ClothingItem, error) {
	if len(items) == 0 {
		return []*types.ClothingItem{}, nil
	}
	if err := dbc.Conn(r.db).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *clothingItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClothingItem, error) {
	var out types.ClothingItem
	err := dbc.Conn(r.db).Where("clothing_id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clothingItemRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.ClothingItem, error) {
	var out []*types.ClothingItem
	if err := dbc.Conn(r.db).
		Order("created_at DESC").
		Limit(types.ClampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clothingItemRepo) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ClothingItem, error) {
	var out []*types.ClothingItem
	if err := dbc.Conn(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(types.ClampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clothingItemRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := dbc.Conn(r.db).Model(&types.ClothingItem{}).Where("clothing_id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *clothingItemRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.Conn(r.db).Where("clothing_id = ?", id).Delete(&types.ClothingItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
