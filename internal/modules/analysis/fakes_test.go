package analysis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/openai"
)

var errBoom = errors.New("boom")

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

type fakeObjectStore struct {
	mu           sync.Mutex
	bucket       string
	putErr       error
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{bucket: "outfits-test", objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (s *fakeObjectStore) Bucket() string { return s.bucket }

func (s *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	s.contentTypes[key] = contentType
	return "https://cdn.test/" + key, nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *fakeObjectStore) only(t *testing.T) (string, []byte) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.objects) != 1 {
		t.Fatalf("objects: want=1 got=%d", len(s.objects))
	}
	for k, v := range s.objects {
		return k, v
	}
	return "", nil
}

// fakeText answers by matching a substring of the system prompt.
type fakeText struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeText() *fakeText {
	return &fakeText{replies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeText) on(systemContains, reply string) *fakeText {
	f.replies[systemContains] = reply
	return f
}

func (f *fakeText) fail(systemContains string, err error) *fakeText {
	f.errs[systemContains] = err
	return f
}

func (f *fakeText) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, system)
	for k, err := range f.errs {
		if strings.Contains(system, k) {
			return "", err
		}
	}
	for k, reply := range f.replies {
		if strings.Contains(system, k) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

type fakeVision struct {
	reply  string
	err    error
	images []openai.ImageInput
}

func (f *fakeVision) GenerateTextWithImages(ctx context.Context, system, user string, images []openai.ImageInput) (string, error) {
	f.images = images
	return f.reply, f.err
}

type fakeDetector struct {
	signals *gcp.ImageSignals
	err     error
}

func (f *fakeDetector) DetectBrandSignals(ctx context.Context, imageURI string) (*gcp.ImageSignals, error) {
	return f.signals, f.err
}

type fakeSearch struct {
	mu      sync.Mutex
	results []gcp.SearchResult
	err     error
	queries []string
	counts  []int
}

func (f *fakeSearch) Search(ctx context.Context, query string, n int) ([]gcp.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.counts = append(f.counts, n)
	return f.results, f.err
}

type fakeBrand struct {
	out Outcome[wardrobe.BrandInfo]
	ref string
}

func (f *fakeBrand) Identify(ctx context.Context, imageRef string) Outcome[wardrobe.BrandInfo] {
	f.ref = imageRef
	return f.out
}

type fakeReport struct {
	out   Outcome[ReportPayload]
	brand string
}

func (f *fakeReport) Generate(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[ReportPayload] {
	f.brand = brand
	return f.out
}

type fakeFinder struct {
	out   Outcome[[]AlternativeCandidate]
	calls int
}

func (f *fakeFinder) Find(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[[]AlternativeCandidate] {
	f.calls++
	return f.out
}

// memStore is an in-memory wardrobe.Store with failure injection.
type memStore struct {
	mu           sync.Mutex
	items        map[uuid.UUID]*wardrobe.ClothingItem
	reports      map[string]*wardrobe.SustainabilityReport
	alts         map[uuid.UUID]*wardrobe.AlternativeProduct
	ops          []string
	clothingErr  error
	reportErr    error
	linkErr      error
	altErrByName map[string]error
	onClothing   func()
	onReport     func()
}

func newMemStore() *memStore {
	return &memStore{
		items:        map[uuid.UUID]*wardrobe.ClothingItem{},
		reports:      map[string]*wardrobe.SustainabilityReport{},
		alts:         map[uuid.UUID]*wardrobe.AlternativeProduct{},
		altErrByName: map[string]error{},
	}
}

var _ wardrobe.Store = (*memStore)(nil)

func (m *memStore) CreateClothingItem(ctx context.Context, item *wardrobe.ClothingItem) error {
	if m.onClothing != nil {
		m.onClothing()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "create_clothing")
	if m.clothingErr != nil {
		return m.clothingErr
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStore) GetClothingItem(ctx context.Context, id uuid.UUID) (*wardrobe.ClothingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, wardrobe.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memStore) UpdateClothingItem(ctx context.Context, id uuid.UUID, patch wardrobe.ClothingPatch) (*wardrobe.ClothingItem, error) {
	m.mu.Lock()
	it, ok := m.items[id]
	if ok {
		if patch.Brand != nil {
			it.Brand = *patch.Brand
		}
		if patch.ImageURL != nil {
			it.ImageURL = *patch.ImageURL
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil, wardrobe.ErrNotFound
	}
	return m.GetClothingItem(ctx, id)
}

func (m *memStore) DeleteClothingItem(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return wardrobe.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) ScanClothingItems(ctx context.Context, limit int) ([]*wardrobe.ClothingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*wardrobe.ClothingItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = wardrobe.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListClothingItemsByUser(ctx context.Context, userID string, limit int) ([]*wardrobe.ClothingItem, error) {
	all, _ := m.ScanClothingItems(ctx, 0)
	var out []*wardrobe.ClothingItem
	for _, it := range all {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) CreateReport(ctx context.Context, report *wardrobe.SustainabilityReport) error {
	if m.onReport != nil {
		m.onReport()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "create_report")
	if m.reportErr != nil {
		return m.reportErr
	}
	cp := *report
	cp.AlternativeIDs = append([]string{}, report.AlternativeIDs...)
	m.reports[report.ID] = &cp
	return nil
}

func (m *memStore) GetReport(ctx context.Context, id string) (*wardrobe.SustainabilityReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, wardrobe.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ScanReports(ctx context.Context, limit int) ([]*wardrobe.SustainabilityReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*wardrobe.SustainabilityReport, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) ListReportsByClothing(ctx context.Context, clothingID uuid.UUID) ([]*wardrobe.SustainabilityReport, error) {
	all, _ := m.ScanReports(ctx, 0)
	var out []*wardrobe.SustainabilityReport
	for _, r := range all {
		if r.ClothingID == clothingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) LinkReportAlternatives(ctx context.Context, reportID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "link_report")
	if m.linkErr != nil {
		return m.linkErr
	}
	r, ok := m.reports[reportID]
	if !ok {
		return wardrobe.ErrNotFound
	}
	r.AlternativeIDs = append([]string{}, ids...)
	return nil
}

func (m *memStore) CreateAlternative(ctx context.Context, alt *wardrobe.AlternativeProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "create_alternative")
	if err := m.altErrByName[alt.Name]; err != nil {
		return err
	}
	cp := *alt
	m.alts[alt.ID] = &cp
	return nil
}

func (m *memStore) GetAlternative(ctx context.Context, id uuid.UUID) (*wardrobe.AlternativeProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alts[id]
	if !ok {
		return nil, wardrobe.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListAlternativesByClothing(ctx context.Context, clothingID uuid.UUID) ([]*wardrobe.AlternativeProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*wardrobe.AlternativeProduct
	for _, a := range m.alts {
		if a.ClothingID == clothingID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) opCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.ops {
		if o == op {
			n++
		}
	}
	return n
}

func testLogger() *logger.Logger { return logger.Nop() }
