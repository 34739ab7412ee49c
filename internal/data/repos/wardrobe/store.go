package wardrobe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/dbctx"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// Store adapts the three gorm repos to types.Store. Each call is its own
// statement; the pipeline never needs a multi-table transaction.
type Store struct {
	db           *gorm.DB
	log          *logger.Logger
	Clothing     ClothingItemRepo
	Reports      SustainabilityReportRepo
	Alternatives AlternativeProductRepo
}

var _ types.Store = (*Store)(nil)

func NewStore(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{
		db:           db,
		log:          baseLog.With("store", "GormWardrobeStore"),
		Clothing:     NewClothingItemRepo(db, baseLog),
		Reports:      NewSustainabilityReportRepo(db, baseLog),
		Alternatives: NewAlternativeProductRepo(db, baseLog),
	}
}

func (s *Store) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func (s *Store) CreateClothingItem(ctx context.Context, item *types.ClothingItem) error {
	if item == nil {
		return fmt.Errorf("create clothing item: nil item")
	}
	if _, err := s.Clothing.Create(s.dbc(ctx), []*types.ClothingItem{item}); err != nil {
		return fmt.Errorf("create clothing item: %w", err)
	}
	return nil
}

func (s *Store) GetClothingItem(ctx context.Context, id uuid.UUID) (*types.ClothingItem, error) {
	return s.Clothing.GetByID(s.dbc(ctx), id)
}

func (s *Store) UpdateClothingItem(ctx context.Context, id uuid.UUID, patch types.ClothingPatch) (*types.ClothingItem, error) {
	updates := map[string]interface{}{}
	if patch.Brand != nil {
		updates["brand"] = *patch.Brand
	}
	if patch.ImageURL != nil {
		updates["image_file"] = *patch.ImageURL
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.Clothing.UpdateFields(s.dbc(ctx), id, updates); err != nil {
			return nil, err
		}
	}
	return s.Clothing.GetByID(s.dbc(ctx), id)
}

func (s *Store) DeleteClothingItem(ctx context.Context, id uuid.UUID) error {
	return s.Clothing.Delete(s.dbc(ctx), id)
}

func (s *Store) ScanClothingItems(ctx context.Context, limit int) ([]*types.ClothingItem, error) {
	return s.Clothing.ListRecent(s.dbc(ctx), limit)
}

func (s *Store) ListClothingItemsByUser(ctx context.Context, userID string, limit int) ([]*types.ClothingItem, error) {
	return s.Clothing.ListByUser(s.dbc(ctx), userID, limit)
}

func (s *Store) CreateReport(ctx context.Context, report *types.SustainabilityReport) error {
	if report == nil {
		return fmt.Errorf("create report: nil report")
	}
	if _, err := s.Reports.Create(s.dbc(ctx), []*types.SustainabilityReport{report}); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*types.SustainabilityReport, error) {
	return s.Reports.GetByID(s.dbc(ctx), id)
}

func (s *Store) ScanReports(ctx context.Context, limit int) ([]*types.SustainabilityReport, error) {
	return s.Reports.ListRecent(s.dbc(ctx), limit)
}

func (s *Store) ListReportsByClothing(ctx context.Context, clothingID uuid.UUID) ([]*types.SustainabilityReport, error) {
	return s.Reports.ListByClothingID(s.dbc(ctx), clothingID)
}

func (s *Store) LinkReportAlternatives(ctx context.Context, reportID string, alternativeIDs []string) error {
	return s.Reports.SetAlternativeIDs(s.dbc(ctx), reportID, alternativeIDs)
}

func (s *Store) CreateAlternative(ctx context.Context, alt *types.AlternativeProduct) error {
	if alt == nil {
		return fmt.Errorf("create alternative: nil alternative")
	}
	if _, err := s.Alternatives.Create(s.dbc(ctx), []*types.AlternativeProduct{alt}); err != nil {
		return fmt.Errorf("create alternative: %w", err)
	}
	return nil
}

func (s *Store) GetAlternative(ctx context.Context, id uuid.UUID) (*types.AlternativeProduct, error) {
	return s.Alternatives.GetByID(s.dbc(ctx), id)
}

func (s *Store) ListAlternativesByClothing(ctx context.Context, clothingID uuid.UUID) ([]*types.AlternativeProduct, error) {
	return s.Alternatives.ListByClothingID(s.dbc(ctx), clothingID)
}
