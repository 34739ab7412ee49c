package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// AlternativeCandidate is a suggested product before it is persisted.
type AlternativeCandidate struct {
	Name                string  `json:"name" validate:"required,max=200"`
	Brand               string  `json:"brand" validate:"required"`
	ImageURL            string  `json:"image_url" validate:"omitempty,url"`
	SustainabilityScore float64 `json:"sustainability_score" validate:"gte=1,lte=5"`
	Link                string  `json:"link" validate:"omitempty,url"`
	WhySustainable      string  `json:"why_sustainable"`
}

const (
	searchResultCount     = 10
	searchDefaultScore    = 4.0
	maxAlternativeNameLen = 100
	maxWhyLen             = 200
	defaultSearchWhy      = "Sustainable alternative found through eco-friendly search"
)

// FallbackAlternatives is the hand-authored set used when generation fails.
func FallbackAlternatives() []AlternativeCandidate {
	return []AlternativeCandidate{
		{
			Name:                "Organic Cotton T-Shirt",
			Brand:               "Patagonia",
			SustainabilityScore: 4.5,
			Link:                "https://www.patagonia.com",
			WhySustainable:      "Made with 100% organic cotton and Fair Trade certified",
		},
		{
			Name:                "Recycled Polyester Hoodie",
			Brand:               "Reformation",
			SustainabilityScore: 4.2,
			Link:                "https://www.thereformation.com",
			WhySustainable:      "Uses recycled polyester from plastic bottles, carbon neutral shipping",
		},
		{
			Name:                "Hemp Blend Jeans",
			Brand:               "Everlane",
			SustainabilityScore: 4.7,
			Link:                "https://www.everlane.com",
			WhySustainable:      "Hemp requires 50% less water than cotton, biodegradable materials",
		},
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func limitCandidates(c []AlternativeCandidate) []AlternativeCandidate {
	if len(c) > wardrobe.MaxAlternatives {
		return c[:wardrobe.MaxAlternatives]
	}
	return c
}

type rawAlternative struct {
	Name                string   `json:"name"`
	Brand               string   `json:"brand"`
	ImageURL            string   `json:"image_url"`
	SustainabilityScore *float64 `json:"sustainability_score"`
	Link                string   `json:"link"`
	WhySustainable      string   `json:"why_sustainable"`
}

func withScheme(link string) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return "https://" + link
}

// parseAlternatives accepts a bare JSON array or {"alternatives": [...]}.
// Missing fields get defaults; entries that still fail validation are dropped.
func parseAlternatives(text string) ([]AlternativeCandidate, error) {
	candidates := jsonCandidates(text, "[{")
	if len(candidates) == 0 {
		return nil, errNoJSON
	}
	var (
		items []rawAlternative
		err   error
	)
	for _, raw := range candidates {
		if items, err = decodeAlternatives(raw); err == nil && len(items) > 0 {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode alternatives: %w", err)
	}

	out := make([]AlternativeCandidate, 0, wardrobe.MaxAlternatives)
	for i, it := range items {
		c := AlternativeCandidate{
			Name:                truncateRunes(orDefault(strings.TrimSpace(it.Name), fmt.Sprintf("Alternative %d", i+1)), maxAlternativeNameLen),
			Brand:               orDefault(strings.TrimSpace(it.Brand), wardrobe.FallbackBrand),
			ImageURL:            withScheme(it.ImageURL),
			SustainabilityScore: searchDefaultScore,
			Link:                withScheme(it.Link),
			WhySustainable:      orDefault(strings.TrimSpace(it.WhySustainable), "Sustainable alternative"),
		}
		if it.SustainabilityScore != nil {
			c.SustainabilityScore = *it.SustainabilityScore
		}
		if err := validate.Struct(c); err != nil {
			continue
		}
		out = append(out, c)
		if len(out) == wardrobe.MaxAlternatives {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no usable alternatives in model output")
	}
	return out, nil
}

func decodeAlternatives(raw string) ([]rawAlternative, error) {
	var items []rawAlternative
	if strings.HasPrefix(raw, "{") {
		var wrapped struct {
			Alternatives []rawAlternative `json:"alternatives"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Alternatives, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GenerativeFinder asks a text model for alternatives directly.
type GenerativeFinder struct {
	log     *logger.Logger
	gen     TextGenerator
	timeout time.Duration
}

func NewGenerativeFinder(log *logger.Logger, gen TextGenerator, timeout time.Duration) *GenerativeFinder {
	return &GenerativeFinder{log: log.With("service", "GenerativeAlternativeFinder"), gen: gen, timeout: timeout}
}

func (f *GenerativeFinder) Find(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[[]AlternativeCandidate] {
	if f == nil || f.gen == nil {
		return fallback(FallbackAlternatives(), errors.New("generative finder not configured"))
	}
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	text, err := f.gen.GenerateText(ctx, alternativesSystemPrompt, alternativesUserPrompt(brand, info))
	if err != nil {
		return fallback(FallbackAlternatives(), fmt.Errorf("alternatives model: %w", err))
	}
	alts, err := parseAlternatives(text)
	if err != nil {
		return fallback(FallbackAlternatives(), err)
	}
	return ok(alts)
}

// LLMQueryGenerator writes shopping queries with a text model.
type LLMQueryGenerator struct {
	gen     TextGenerator
	timeout time.Duration
}

func NewLLMQueryGenerator(gen TextGenerator, timeout time.Duration) *LLMQueryGenerator {
	return &LLMQueryGenerator{gen: gen, timeout: timeout}
}

func (q *LLMQueryGenerator) GenerateQuery(ctx context.Context, brand string, info wardrobe.BrandInfo) (string, error) {
	if q == nil || q.gen == nil {
		return "", errors.New("query generator not configured")
	}
	ctx, cancel := withTimeout(ctx, q.timeout)
	defer cancel()
	text, err := q.gen.GenerateText(ctx, querySystemPrompt, queryUserPrompt(brand, info))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(text))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if text == "" {
		return "", errors.New("empty query")
	}
	return text, nil
}

// EnsureShoppingQuery adds a clothing-category term and a purchase-intent
// term when the query lacks them.
func EnsureShoppingQuery(q string) string {
	q = strings.TrimSpace(q)
	lower := strings.ToLower(q)
	if !strings.Contains(lower, "clothing") && !strings.Contains(lower, "apparel") {
		q += " clothing"
	}
	if !strings.Contains(lower, "buy") && !strings.Contains(lower, "shop") {
		q = "buy " + q
	}
	return strings.TrimSpace(q)
}

// FallbackQuery is used when query generation fails.
func FallbackQuery(info wardrobe.BrandInfo) string {
	productType := "clothing"
	if fields := strings.Fields(info.ProductTitle); len(fields) > 0 {
		productType = strings.ToLower(fields[0])
	}
	return "buy sustainable eco-friendly " + productType + " clothing"
}

// SearchFinder sources alternatives from a live web search filtered down to
// plausible clothing stores.
type SearchFinder struct {
	log     *logger.Logger
	queries QueryGenerator
	search  WebSearcher
	filter  *RetailFilter
	timeout time.Duration
}

func NewSearchFinder(log *logger.Logger, queries QueryGenerator, search WebSearcher, filter *RetailFilter, timeout time.Duration) *SearchFinder {
	if filter == nil {
		filter = DefaultRetailFilter()
	}
	return &SearchFinder{
		log:     log.With("service", "SearchAlternativeFinder"),
		queries: queries,
		search:  search,
		filter:  filter,
		timeout: timeout,
	}
}

func (f *SearchFinder) query(ctx context.Context, brand string, info wardrobe.BrandInfo) string {
	if f.queries == nil {
		return FallbackQuery(info)
	}
	q, err := f.queries.GenerateQuery(ctx, brand, info)
	if err != nil {
		f.log.Warn("Query generation failed; using fallback query", "error", err)
		return FallbackQuery(info)
	}
	return EnsureShoppingQuery(q)
}

func (f *SearchFinder) Find(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[[]AlternativeCandidate] {
	if f == nil || f.search == nil {
		return fallback([]AlternativeCandidate{}, errors.New("search finder not configured"))
	}
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	query := f.query(ctx, brand, info)
	results, err := f.search.Search(ctx, query, searchResultCount)
	if err != nil {
		return fallback([]AlternativeCandidate{}, fmt.Errorf("search %q: %w", query, err))
	}

	out := make([]AlternativeCandidate, 0, wardrobe.MaxAlternatives)
	for _, r := range results {
		title := orDefault(strings.TrimSpace(r.Title), "Product")
		if !f.filter.Accept(r.Link, title) {
			f.log.Debug("Filtered out non-store result", "link", r.Link)
			continue
		}
		why := defaultSearchWhy
		if s := strings.TrimSpace(r.Snippet); s != "" {
			why = truncateRunes(s, maxWhyLen)
		}
		out = append(out, AlternativeCandidate{
			Name:                truncateRunes(title, maxAlternativeNameLen),
			Brand:               f.filter.GuessBrand(title, r.Link),
			ImageURL:            r.ImageURL,
			SustainabilityScore: searchDefaultScore,
			Link:                r.Link,
			WhySustainable:      why,
		})
		if len(out) == wardrobe.MaxAlternatives {
			break
		}
	}
	if len(out) == 0 {
		return fallback(out, fmt.Errorf("search %q: no store results among %d", query, len(results)))
	}
	return ok(out)
}

type AlternativesPolicy string

const (
	PolicySearchFirst     AlternativesPolicy = "search_first"
	PolicyGenerativeFirst AlternativesPolicy = "generative_first"
	PolicySearchOnly      AlternativesPolicy = "search_only"
	PolicyGenerativeOnly  AlternativesPolicy = "generative_only"
)

func ParseAlternativesPolicy(raw string) (AlternativesPolicy, error) {
	switch p := AlternativesPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicySearchFirst, nil
	case PolicySearchFirst, PolicyGenerativeFirst, PolicySearchOnly, PolicyGenerativeOnly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown alternatives policy %q", raw)
	}
}

// PolicyFinder applies a fixed primary/secondary order between the two
// strategies. The secondary runs only when the primary degrades; the
// result is flagged as fallback whenever the primary did not deliver.
type PolicyFinder struct {
	log       *logger.Logger
	primary   AlternativeFinder
	secondary AlternativeFinder
}

func NewPolicyFinder(log *logger.Logger, policy AlternativesPolicy, search, generative AlternativeFinder) (*PolicyFinder, error) {
	pf := &PolicyFinder{log: log.With("service", "AlternativeFinder", "policy", string(policy))}
	switch policy {
	case PolicySearchFirst:
		pf.primary, pf.secondary = search, generative
	case PolicyGenerativeFirst:
		pf.primary, pf.secondary = generative, search
	case PolicySearchOnly:
		pf.primary = search
	case PolicyGenerativeOnly:
		pf.primary = generative
	default:
		return nil, fmt.Errorf("unknown alternatives policy %q", policy)
	}
	if pf.primary == nil {
		return nil, fmt.Errorf("policy %s: primary finder not configured", policy)
	}
	return pf, nil
}

func (p *PolicyFinder) Find(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[[]AlternativeCandidate] {
	first := p.primary.Find(ctx, brand, info)
	first.Value = limitCandidates(first.Value)
	if !first.Fallback || p.secondary == nil {
		return first
	}
	p.log.Warn("Primary alternative source degraded; trying secondary", "error", first.Reason)
	second := p.secondary.Find(ctx, brand, info)
	second.Value = limitCandidates(second.Value)
	if len(second.Value) == 0 && len(first.Value) > 0 {
		return first
	}
	reason := first.Reason
	if second.Reason != nil {
		reason = errors.Join(first.Reason, second.Reason)
	}
	return fallback(second.Value, reason)
}
