package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/openai"
)

// FallbackBrandInfo is carried forward whenever identification fails.
func FallbackBrandInfo() wardrobe.BrandInfo {
	return wardrobe.BrandInfo{
		Brand:              wardrobe.FallbackBrand,
		ProductTitle:       "Clothing Item",
		ProductDescription: "Unable to identify from image",
		Confidence:         0,
	}
}

var errUnknownBrand = errors.New("identifier returned no usable brand")

func isUnknownBrand(brand string) bool {
	switch strings.ToLower(strings.TrimSpace(brand)) {
	case "", "unknown", "unknown brand", "n/a", "none":
		return true
	default:
		return false
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// LLMBrandIdentifier asks a multimodal model to name the brand in the photo.
type LLMBrandIdentifier struct {
	log     *logger.Logger
	gen     VisionGenerator
	timeout time.Duration
}

func NewLLMBrandIdentifier(log *logger.Logger, gen VisionGenerator, timeout time.Duration) *LLMBrandIdentifier {
	return &LLMBrandIdentifier{log: log.With("service", "LLMBrandIdentifier"), gen: gen, timeout: timeout}
}

func (b *LLMBrandIdentifier) Identify(ctx context.Context, imageRef string) Outcome[wardrobe.BrandInfo] {
	if b == nil || b.gen == nil {
		return fallback(FallbackBrandInfo(), errors.New("brand identifier not configured"))
	}
	ctx, cancel := withTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.gen.GenerateTextWithImages(ctx, brandSystemPrompt, brandUserPrompt, []openai.ImageInput{
		{ImageURL: imageRef, Detail: "low"},
	})
	if err != nil {
		return fallback(FallbackBrandInfo(), fmt.Errorf("brand model: %w", err))
	}
	var info wardrobe.BrandInfo
	if err := decodeEmbedded(text, &info); err != nil {
		return fallback(FallbackBrandInfo(), fmt.Errorf("decode brand: %w", err))
	}
	info.Brand = strings.TrimSpace(info.Brand)
	if isUnknownBrand(info.Brand) {
		return fallback(FallbackBrandInfo(), errUnknownBrand)
	}
	info.ProductTitle = orDefault(strings.TrimSpace(info.ProductTitle), "Clothing Item")
	info.ProductDescription = strings.TrimSpace(info.ProductDescription)
	info.Confidence = clamp01(info.Confidence)
	return ok(info)
}

// brandKeywords are matched against Vision's web signals; values are display names.
var brandKeywords = map[string]string{
	"nike":             "Nike",
	"adidas":           "Adidas",
	"puma":             "Puma",
	"under armour":     "Under Armour",
	"lululemon":        "Lululemon",
	"patagonia":        "Patagonia",
	"north face":       "The North Face",
	"columbia":         "Columbia",
	"gap":              "Gap",
	"h&m":              "H&M",
	"zara":             "Zara",
	"uniqlo":           "Uniqlo",
	"target":           "Target",
	"walmart":          "Walmart",
	"amazon":           "Amazon",
	"shein":            "Shein",
	"fashion nova":     "Fashion Nova",
	"urban outfitters": "Urban Outfitters",
	"forever 21":       "Forever 21",
	"hollister":        "Hollister",
	"abercrombie":      "Abercrombie & Fitch",
	"calvin klein":     "Calvin Klein",
	"tommy hilfiger":   "Tommy Hilfiger",
	"ralph lauren":     "Ralph Lauren",
	"levi's":           "Levi's",
	"wrangler":         "Wrangler",
	"dickies":          "Dickies",
	"carhartt":         "Carhartt",
}

// VisionBrandIdentifier votes over logo and web-detection text. Each signal
// votes once per brand it mentions; confidence is the winning vote count
// divided by the number of signals.
type VisionBrandIdentifier struct {
	log      *logger.Logger
	detector BrandSignalDetector
	timeout  time.Duration
}

func NewVisionBrandIdentifier(log *logger.Logger, detector BrandSignalDetector, timeout time.Duration) *VisionBrandIdentifier {
	return &VisionBrandIdentifier{log: log.With("service", "VisionBrandIdentifier"), detector: detector, timeout: timeout}
}

func (b *VisionBrandIdentifier) Identify(ctx context.Context, imageRef string) Outcome[wardrobe.BrandInfo] {
	if b == nil || b.detector == nil {
		return fallback(FallbackBrandInfo(), errors.New("brand identifier not configured"))
	}
	ctx, cancel := withTimeout(ctx, b.timeout)
	defer cancel()

	signals, err := b.detector.DetectBrandSignals(ctx, imageRef)
	if err != nil {
		return fallback(FallbackBrandInfo(), fmt.Errorf("vision: %w", err))
	}
	if signals.Empty() {
		return fallback(FallbackBrandInfo(), errUnknownBrand)
	}
	info, found := brandFromSignals(signals)
	if !found {
		return fallback(FallbackBrandInfo(), errUnknownBrand)
	}
	return ok(info)
}

func brandFromSignals(s *gcp.ImageSignals) (wardrobe.BrandInfo, bool) {
	var texts []string
	for _, l := range s.Logos {
		texts = append(texts, l.Description)
	}
	for _, e := range s.WebEntities {
		texts = append(texts, e.Description)
	}
	texts = append(texts, s.BestGuessLabels...)
	texts = append(texts, s.PageTitles...)

	votes := map[string]int{}
	for _, t := range texts {
		lower := strings.ToLower(t)
		for kw := range brandKeywords {
			if strings.Contains(lower, kw) {
				votes[kw]++
			}
		}
	}

	info := wardrobe.BrandInfo{
		ProductTitle:       firstNonEmpty(append(append([]string{}, s.BestGuessLabels...), s.PageTitles...)...),
		ProductDescription: describeEntities(s),
	}
	info.ProductTitle = orDefault(info.ProductTitle, "Clothing Item")

	if len(votes) > 0 {
		best, bestVotes := "", 0
		keys := make([]string, 0, len(votes))
		for k := range votes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if votes[k] > bestVotes {
				best, bestVotes = k, votes[k]
			}
		}
		info.Brand = brandKeywords[best]
		info.Confidence = clamp01(float64(bestVotes) / float64(len(texts)))
		return info, true
	}
	if len(s.Logos) > 0 && !isUnknownBrand(s.Logos[0].Description) {
		info.Brand = s.Logos[0].Description
		info.Confidence = clamp01(s.Logos[0].Score)
		return info, true
	}
	return wardrobe.BrandInfo{}, false
}

func describeEntities(s *gcp.ImageSignals) string {
	var parts []string
	for _, e := range s.WebEntities {
		if len(parts) == 3 {
			break
		}
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
