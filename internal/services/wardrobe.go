package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/apierr"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// summaryScanLimit bounds the reports folded into a score summary.
const summaryScanLimit = 1000

// ImageDeleter removes stored outfit photos.
type ImageDeleter interface {
	Bucket() string
	Delete(ctx context.Context, key string) error
}

// Analysis is one clothing item with everything derived from it.
type Analysis struct {
	ClothingItem *types.ClothingItem           `json:"clothing_item"`
	Reports      []*types.SustainabilityReport `json:"sustainability_reports"`
	Alternatives []*types.AlternativeProduct   `json:"alternatives"`
}

type WardrobeService interface {
	ListClothing(ctx context.Context, limit int) ([]*types.ClothingItem, error)
	GetClothing(ctx context.Context, id string) (*types.ClothingItem, error)
	UpdateClothing(ctx context.Context, id string, patch types.ClothingPatch) (*types.ClothingItem, error)
	DeleteClothing(ctx context.Context, id string) error

	ListReports(ctx context.Context, limit int) ([]*types.SustainabilityReport, error)
	GetReport(ctx context.Context, id string) (*types.SustainabilityReport, error)
	ReportsForClothing(ctx context.Context, clothingID string) ([]*types.SustainabilityReport, error)
	ScoreSummary(ctx context.Context) (types.ScoreSummary, error)

	GetAlternative(ctx context.Context, id string) (*types.AlternativeProduct, error)

	UserHistory(ctx context.Context, userID string, limit int) ([]Analysis, error)
}

type wardrobeService struct {
	log    *logger.Logger
	store  types.Store
	images ImageDeleter
}

// NewWardrobeService forwards reads and corrections to the store. images may
// be nil, in which case deleting a clothing item leaves its photo in place.
func NewWardrobeService(log *logger.Logger, store types.Store, images ImageDeleter) WardrobeService {
	return &wardrobeService{
		log:    log.With("service", "WardrobeService"),
		store:  store,
		images: images,
	}
}

func parseID(code, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apierr.BadRequest(code, fmt.Errorf("invalid id %q", raw))
	}
	return id, nil
}

func notFound(code string, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return apierr.NotFound(code, err)
	}
	return err
}

func (s *wardrobeService) ListClothing(ctx context.Context, limit int) ([]*types.ClothingItem, error) {
	return s.store.ScanClothingItems(ctx, limit)
}

func (s *wardrobeService) GetClothing(ctx context.Context, id string) (*types.ClothingItem, error) {
	cid, err := parseID("invalid_clothing_id", id)
	if err != nil {
		return nil, err
	}
	item, err := s.store.GetClothingItem(ctx, cid)
	if err != nil {
		return nil, notFound("clothing_not_found", err)
	}
	return item, nil
}

func (s *wardrobeService) UpdateClothing(ctx context.Context, id string, patch types.ClothingPatch) (*types.ClothingItem, error) {
	cid, err := parseID("invalid_clothing_id", id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apierr.BadRequest("empty_patch", errors.New("nothing to update"))
	}
	if patch.Brand != nil {
		b := strings.TrimSpace(*patch.Brand)
		if b == "" {
			return nil, apierr.BadRequest("invalid_brand", errors.New("brand must not be empty"))
		}
		patch.Brand = &b
	}
	item, err := s.store.UpdateClothingItem(ctx, cid, patch)
	if err != nil {
		return nil, notFound("clothing_not_found", err)
	}
	return item, nil
}

// DeleteClothing removes the record, then the stored photo. A failed photo
// delete is logged and does not fail the call.
func (s *wardrobeService) DeleteClothing(ctx context.Context, id string) error {
	item, err := s.GetClothing(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteClothingItem(ctx, item.ID); err != nil {
		return notFound("clothing_not_found", err)
	}
	if s.images == nil || item.ImageKey == "" {
		return nil
	}
	if item.ImageBucket != "" && item.ImageBucket != s.images.Bucket() {
		s.log.Warn("Stored image lives in another bucket; leaving it", "clothing_id", item.ID, "bucket", item.ImageBucket)
		return nil
	}
	if err := s.images.Delete(ctx, item.ImageKey); err != nil {
		s.log.Warn("Image delete failed", "clothing_id", item.ID, "key", item.ImageKey, "error", err)
	}
	return nil
}

func (s *wardrobeService) ListReports(ctx context.Context, limit int) ([]*types.SustainabilityReport, error) {
	return s.store.ScanReports(ctx, limit)
}

func (s *wardrobeService) GetReport(ctx context.Context, id string) (*types.SustainabilityReport, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.BadRequest("invalid_report_id", errors.New("missing report id"))
	}
	rep, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, notFound("report_not_found", err)
	}
	return rep, nil
}

func (s *wardrobeService) ReportsForClothing(ctx context.Context, clothingID string) ([]*types.SustainabilityReport, error) {
	cid, err := parseID("invalid_clothing_id", clothingID)
	if err != nil {
		return nil, err
	}
	return s.store.ListReportsByClothing(ctx, cid)
}

func (s *wardrobeService) ScoreSummary(ctx context.Context) (types.ScoreSummary, error) {
	reports, err := s.store.ScanReports(ctx, summaryScanLimit)
	if err != nil {
		return types.ScoreSummary{}, err
	}
	return types.Summarize(reports), nil
}

func (s *wardrobeService) GetAlternative(ctx context.Context, id string) (*types.AlternativeProduct, error) {
	aid, err := parseID("invalid_alternative_id", id)
	if err != nil {
		return nil, err
	}
	alt, err := s.store.GetAlternative(ctx, aid)
	if err != nil {
		return nil, notFound("alternative_not_found", err)
	}
	return alt, nil
}

// UserHistory returns the user's clothing items, newest first, each with its
// reports and alternatives.
func (s *wardrobeService) UserHistory(ctx context.Context, userID string, limit int) ([]Analysis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apierr.BadRequest("invalid_user_id", errors.New("missing user id"))
	}
	items, err := s.store.ListClothingItemsByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Analysis, 0, len(items))
	for _, it := range items {
		reports, err := s.store.ListReportsByClothing(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("reports for %s: %w", it.ID, err)
		}
		alts, err := s.store.ListAlternativesByClothing(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("alternatives for %s: %w", it.ID, err)
		}
		if reports == nil {
			reports = []*types.SustainabilityReport{}
		}
		if alts == nil {
			alts = []*types.AlternativeProduct{}
		}
		out = append(out, Analysis{ClothingItem: it, Reports: reports, Alternatives: alts})
	}
	return out, nil
}
