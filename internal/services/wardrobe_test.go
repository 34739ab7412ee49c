package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/fitprint-backend/internal/data/repos"
	"github.com/yungbote/fitprint-backend/internal/data/repos/testutil"
	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/apierr"
)

type fakeImages struct {
	bucket  string
	err     error
	deleted []string
}

func (f *fakeImages) Bucket() string { return f.bucket }

func (f *fakeImages) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.err
}

func newTestService(t *testing.T, images ImageDeleter) (WardrobeService, types.Store) {
	t.Helper()
	store := repos.NewWardrobeStore(testutil.DB(t), testutil.Logger(t))
	return NewWardrobeService(testutil.Logger(t), store, images), store
}

func seedAnalysis(t *testing.T, store types.Store, userID string, overall float64, at time.Time) *types.ClothingItem {
	t.Helper()
	ctx := context.Background()
	item := &types.ClothingItem{
		ID:          uuid.New(),
		UserID:      userID,
		Brand:       "Nike",
		ImageURL:    "https://cdn.test/outfits/" + userID + "/a.jpg",
		ImageKey:    "outfits/" + userID + "/a.jpg",
		ImageBucket: "outfits-test",
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := store.CreateClothingItem(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	cats := types.Categories{}
	for _, k := range types.CategoryKeys {
		cats[k] = types.CategoryScore{Score: 3}
	}
	rep := &types.SustainabilityReport{
		ID:             "rep_" + item.ID.String()[:8],
		ClothingID:     item.ID,
		Brand:          "Nike",
		Categories:     datatypes.NewJSONType(cats),
		OverallScore:   overall,
		RegionalAlerts: datatypes.NewJSONType(types.RegionalAlerts{}),
		AlternativeIDs: datatypes.JSONSlice[string]{},
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if err := store.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create report: %v", err)
	}
	alt := &types.AlternativeProduct{ID: uuid.New(), ClothingID: item.ID, Name: "Tee", Brand: "Pact", SustainabilityScore: 4, CreatedAt: at}
	if err := store.CreateAlternative(ctx, alt); err != nil {
		t.Fatalf("create alternative: %v", err)
	}
	return item
}

func wantAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != status {
		t.Fatalf("error: want api status %d got=%v", status, err)
	}
}

func TestWardrobeService_UserHistory(t *testing.T) {
	svc, store := newTestService(t, nil)
	now := time.Now().UTC()
	older := seedAnalysis(t, store, "u1", 2.5, now.Add(-time.Hour))
	newer := seedAnalysis(t, store, "u1", 4.5, now)
	seedAnalysis(t, store, "u2", 3, now)

	got, err := svc.UserHistory(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("UserHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("items: want=2 got=%d", len(got))
	}
	if got[0].ClothingItem.ID != newer.ID || got[1].ClothingItem.ID != older.ID {
		t.Fatalf("order: want newest first")
	}
	if len(got[0].Reports) != 1 || len(got[0].Alternatives) != 1 {
		t.Fatalf("children: unexpected %+v", got[0])
	}

	if _, err := svc.UserHistory(context.Background(), " ", 0); err == nil {
		t.Fatalf("empty user: want error")
	} else {
		wantAPIStatus(t, err, http.StatusBadRequest)
	}
}

func TestWardrobeService_ScoreSummary(t *testing.T) {
	svc, store := newTestService(t, nil)
	now := time.Now().UTC()
	for i, s := range []float64{4.5, 3.2, 2.1, 1.5} {
		seedAnalysis(t, store, "u1", s, now.Add(time.Duration(i)*time.Second))
	}
	sum, err := svc.ScoreSummary(context.Background())
	if err != nil {
		t.Fatalf("ScoreSummary: %v", err)
	}
	if sum.TotalReports != 4 || sum.HighestScore != 4.5 || sum.LowestScore != 1.5 {
		t.Fatalf("summary: unexpected %+v", sum)
	}
	d := sum.Distribution
	if d.Excellent != 1 || d.Good != 1 || d.Fair != 1 || d.Poor != 1 {
		t.Fatalf("distribution: unexpected %+v", d)
	}
}

func TestWardrobeService_UpdateClothing(t *testing.T) {
	svc, store := newTestService(t, nil)
	item := seedAnalysis(t, store, "u1", 3, time.Now().UTC())
	ctx := context.Background()

	brand := "  Patagonia "
	got, err := svc.UpdateClothing(ctx, item.ID.String(), types.ClothingPatch{Brand: &brand})
	if err != nil {
		t.Fatalf("UpdateClothing: %v", err)
	}
	if got.Brand != "Patagonia" {
		t.Fatalf("brand: want=Patagonia got=%q", got.Brand)
	}

	_, err = svc.UpdateClothing(ctx, item.ID.String(), types.ClothingPatch{})
	wantAPIStatus(t, err, http.StatusBadRequest)

	blank := " "
	_, err = svc.UpdateClothing(ctx, item.ID.String(), types.ClothingPatch{Brand: &blank})
	wantAPIStatus(t, err, http.StatusBadRequest)

	_, err = svc.UpdateClothing(ctx, uuid.NewString(), types.ClothingPatch{Brand: &brand})
	wantAPIStatus(t, err, http.StatusNotFound)

	_, err = svc.UpdateClothing(ctx, "not-a-uuid", types.ClothingPatch{Brand: &brand})
	wantAPIStatus(t, err, http.StatusBadRequest)
}

func TestWardrobeService_DeleteClothingRemovesImage(t *testing.T) {
	images := &fakeImages{bucket: "outfits-test", err: errors.New("gone already")}
	svc, store := newTestService(t, images)
	item := seedAnalysis(t, store, "u1", 3, time.Now().UTC())
	ctx := context.Background()

	if err := svc.DeleteClothing(ctx, item.ID.String()); err != nil {
		t.Fatalf("DeleteClothing: %v", err)
	}
	if len(images.deleted) != 1 || images.deleted[0] != item.ImageKey {
		t.Fatalf("image delete: unexpected %v", images.deleted)
	}
	_, err := svc.GetClothing(ctx, item.ID.String())
	wantAPIStatus(t, err, http.StatusNotFound)
}

func TestWardrobeService_DeleteClothingSkipsForeignBucket(t *testing.T) {
	images := &fakeImages{bucket: "other-bucket"}
	svc, store := newTestService(t, images)
	item := seedAnalysis(t, store, "u1", 3, time.Now().UTC())

	if err := svc.DeleteClothing(context.Background(), item.ID.String()); err != nil {
		t.Fatalf("DeleteClothing: %v", err)
	}
	if len(images.deleted) != 0 {
		t.Fatalf("image delete: want none got=%v", images.deleted)
	}
}

func TestWardrobeService_Lookups(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	item := seedAnalysis(t, store, "u1", 3, time.Now().UTC())

	reports, err := svc.ReportsForClothing(ctx, item.ID.String())
	if err != nil || len(reports) != 1 {
		t.Fatalf("ReportsForClothing: reports=%v err=%v", reports, err)
	}
	if _, err := svc.GetReport(ctx, reports[0].ID); err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	_, err = svc.GetReport(ctx, "rep_missing")
	wantAPIStatus(t, err, http.StatusNotFound)

	_, err = svc.GetAlternative(ctx, uuid.NewString())
	wantAPIStatus(t, err, http.StatusNotFound)
}
