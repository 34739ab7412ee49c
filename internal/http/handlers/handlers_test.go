package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/fitprint-backend/internal/data/repos"
	"github.com/yungbote/fitprint-backend/internal/data/repos/testutil"
	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/http/response"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/services"
)

type fakeAnalyzer struct {
	res *analysis.Result
	err error
	got analysis.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	f.got = req
	return f.res, f.err
}

type testEnv struct {
	router   *gin.Engine
	analyzer *fakeAnalyzer
	store    types.Store
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repos.NewWardrobeStore(testutil.DB(t), logger.Nop())
	wardrobe := services.NewWardrobeService(logger.Nop(), store, nil)
	env := &testEnv{analyzer: &fakeAnalyzer{}, store: store}

	ah := NewAnalysisHandler(AnalysisHandlerDeps{Log: logger.Nop(), Analyzer: env.analyzer, Wardrobe: wardrobe, MaxUploadBytes: maxUpload})
	wh := NewWardrobeHandler(wardrobe)
	r := gin.New()
	r.POST("/api/analysis/outfit", ah.AnalyzeOutfit)
	r.GET("/api/analysis/outfit/user/:user_id", ah.ListUserAnalyses)
	r.GET("/api/analysis/outfit/:analysis_id", ah.GetAnalysis)
	r.GET("/api/clothing/:id", wh.GetClothing)
	r.PATCH("/api/clothing/:id", wh.UpdateClothing)
	r.DELETE("/api/clothing/:id", wh.DeleteClothing)
	r.GET("/api/sustainability/reports/clothing/:clothing_id", wh.ReportsForClothing)
	r.GET("/api/sustainability/scores/summary", wh.ScoreSummary)
	r.GET("/api/alternatives/:id", wh.GetAlternative)
	env.router = r
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, userID string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if userID != "" {
		if err := w.WriteField("user_id", userID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "look.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analysis/outfit", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env.Error
}

func seedItem(t *testing.T, store types.Store) (*types.ClothingItem, *types.SustainabilityReport) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	item := &types.ClothingItem{ID: uuid.New(), UserID: "u1", Brand: "Nike", ImageURL: "https://cdn.test/a.jpg", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateClothingItem(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	cats := types.Categories{}
	for _, k := range types.CategoryKeys {
		cats[k] = types.CategoryScore{Score: 4}
	}
	rep := &types.SustainabilityReport{
		ID:             "rep_20260101_000000_abcdef12",
		ClothingID:     item.ID,
		Brand:          "Nike",
		Categories:     datatypes.NewJSONType(cats),
		OverallScore:   4,
		RegionalAlerts: datatypes.NewJSONType(types.RegionalAlerts{}),
		AlternativeIDs: datatypes.JSONSlice[string]{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create report: %v", err)
	}
	return item, rep
}

func TestAnalyzeOutfit_Success(t *testing.T) {
	env := newTestEnv(t, 0)
	env.analyzer.res = &analysis.Result{
		AnalysisID:   "a-1",
		ClothingItem: &types.ClothingItem{ID: uuid.New(), Brand: "Nike"},
		Alternatives: []*types.AlternativeProduct{},
		Stages:       []analysis.StageRecord{{State: analysis.StateIdentifying, Fallback: true}},
	}

	rec := env.do(uploadRequest(t, "u1", []byte("fake image bytes")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if env.analyzer.got.UserID != "u1" || env.analyzer.got.Filename != "look.png" || string(env.analyzer.got.Image) != "fake image bytes" {
		t.Fatalf("request: unexpected %+v", env.analyzer.got)
	}
	if rec.Header().Get("X-Analysis-Degraded") != "true" {
		t.Fatalf("degraded header: want=true")
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["analysis_id"] != "a-1" {
		t.Fatalf("analysis_id: unexpected %v", body["analysis_id"])
	}
	if _, ok := body["Stages"]; ok {
		t.Fatalf("stage trace must not be serialized")
	}
}

func TestAnalyzeOutfit_ValidatesInput(t *testing.T) {
	env := newTestEnv(t, 0)
	if rec := env.do(uploadRequest(t, "", []byte("x"))); rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "missing_user_id" {
		t.Fatalf("missing user: got=%d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(uploadRequest(t, "u1", nil)); rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "missing_image" {
		t.Fatalf("missing image: got=%d %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeOutfit_RejectsOversizedImage(t *testing.T) {
	env := newTestEnv(t, 16)
	rec := env.do(uploadRequest(t, "u1", bytes.Repeat([]byte("x"), 64)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: want=413 got=%d", rec.Code)
	}
}

func TestAnalyzeOutfit_MapsFatalErrors(t *testing.T) {
	cases := []struct {
		kind   error
		status int
		code   string
	}{
		{analysis.ErrFatalPersistence, http.StatusInternalServerError, "analysis_not_saved"},
		{analysis.ErrFatalIntake, http.StatusUnprocessableEntity, "image_intake_failed"},
		{analysis.ErrAborted, http.StatusServiceUnavailable, "analysis_aborted"},
	}
	for _, tc := range cases {
		env := newTestEnv(t, 0)
		env.analyzer.err = &analysis.FatalError{Kind: tc.kind, Stage: analysis.StatePersistingItem, Err: fmt.Errorf("boom")}
		rec := env.do(uploadRequest(t, "u1", []byte("x")))
		if rec.Code != tc.status || decodeError(t, rec).Code != tc.code {
			t.Fatalf("%v: want=%d/%s got=%d %s", tc.kind, tc.status, tc.code, rec.Code, rec.Body.String())
		}
	}
}

func TestGetAnalysis_NotImplemented(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/analysis/outfit/abc", nil))
	if rec.Code != http.StatusNotImplemented || decodeError(t, rec).Code != "not_implemented" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListUserAnalyses(t *testing.T) {
	env := newTestEnv(t, 0)
	seedItem(t, env.store)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/analysis/outfit/user/u1?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Count    int                 `json:"count"`
		Analyses []services.Analysis `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || len(body.Analyses[0].Reports) != 1 {
		t.Fatalf("body: unexpected %+v", body)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/analysis/outfit/user/u1?limit=-2", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: want=400 got=%d", rec.Code)
	}
}

func TestWardrobeRoutes(t *testing.T) {
	env := newTestEnv(t, 0)
	item, _ := seedItem(t, env.store)
	path := "/api/clothing/" + item.ID.String()

	if rec := env.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusOK {
		t.Fatalf("get: want=200 got=%d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/clothing/not-a-uuid", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want=400 got=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(`{"brand":"Patagonia"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Item types.ClothingItem `json:"clothing_item"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &patched)
	if patched.Item.Brand != "Patagonia" {
		t.Fatalf("patched brand: got=%q", patched.Item.Brand)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/sustainability/reports/clothing/"+item.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reports by clothing: want=200 got=%d", rec.Code)
	}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/sustainability/reports/clothing/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reports for unknown clothing: want=404 got=%d", rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/sustainability/scores/summary", nil))
	var summary types.ScoreSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil || summary.TotalReports != 1 || summary.Distribution.Excellent != 1 {
		t.Fatalf("summary: unexpected %+v err=%v", summary, err)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/alternatives/"+uuid.NewString(), nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("missing alternative: want=404 got=%d", rec.Code)
	}

	if rec := env.do(httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: want=204 got=%d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: want=404 got=%d", rec.Code)
	}
}
