package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitprint-backend/internal/data/repos"
	"github.com/yungbote/fitprint-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/fitprint-backend/internal/http/handlers"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/services"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	return &analysis.Result{AnalysisID: "stub"}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *observability.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	store := repos.NewWardrobeStore(testutil.DB(t), log)
	wardrobe := services.NewWardrobeService(log, store, nil)
	m := observability.NewMetrics(false)
	r := NewRouter(RouterConfig{
		Log:             log,
		Metrics:         m,
		CORSOrigins:     []string{"http://localhost:3000"},
		HealthHandler:   httpH.NewHealthHandler(nil),
		AnalysisHandler: httpH.NewAnalysisHandler(httpH.AnalysisHandlerDeps{Log: log, Analyzer: stubAnalyzer{}, Wardrobe: wardrobe}),
		WardrobeHandler: httpH.NewWardrobeHandler(wardrobe),
	})
	return r, m
}

func TestRouterServesRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthcheck", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/api/clothing", http.StatusOK},
		{http.MethodGet, "/api/sustainability/reports", http.StatusOK},
		{http.MethodGet, "/api/sustainability/scores/summary", http.StatusOK},
		{http.MethodGet, "/api/analysis/outfit/user/u1", http.StatusOK},
		{http.MethodGet, "/api/analysis/outfit/some-id", http.StatusNotImplemented},
		{http.MethodGet, "/api/sustainability/reports/rep_missing", http.StatusNotFound},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s %s: want=%d got=%d body=%s", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: want=200 got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/healthcheck"`) {
		t.Fatalf("metrics: want healthcheck series in scrape output")
	}
	if strings.Contains(rec.Body.String(), `route="/metrics"`) {
		t.Fatalf("metrics: scrape endpoint must not be recorded")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/analysis/outfit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin: want=http://localhost:3000 got=%q", got)
	}
}
