package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

var validate = validator.New()

// ReportPayload is a report before it is given identifiers and persisted.
type ReportPayload struct {
	Brand              string                  `json:"brand"`
	Categories         wardrobe.Categories     `json:"categories"`
	OverallScore       float64                 `json:"overall_score"`
	OverallDescription string                  `json:"overall_description"`
	RegionalAlerts     wardrobe.RegionalAlerts `json:"regional_alerts"`
}

// FallbackReport is the neutral report substituted for any generation or
// validation failure.
func FallbackReport(brand string) ReportPayload {
	cats := make(wardrobe.Categories, len(wardrobe.CategoryKeys))
	for _, k := range wardrobe.CategoryKeys {
		cats[k] = wardrobe.CategoryScore{Score: 3, Description: "Not enough information to assess this category."}
	}
	return ReportPayload{
		Brand:              orDefault(brand, wardrobe.FallbackBrand),
		Categories:         cats,
		OverallScore:       3.0,
		OverallDescription: "A detailed assessment is unavailable right now; scores are neutral estimates.",
		RegionalAlerts:     wardrobe.RegionalAlerts{},
	}
}

type rawCategory struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type rawReport struct {
	Brand              string                 `json:"brand"`
	Categories         map[string]rawCategory `json:"categories" validate:"len=5,dive,keys,oneof=material_origin production_impact labor_ethics end_of_life brand_transparency,endkeys"`
	OverallScore       float64                `json:"overall_score" validate:"gte=1,lte=5"`
	OverallDescription string                 `json:"overall_description"`
	RegionalAlerts     map[string]*string     `json:"regional_alerts"`
}

// parseReport decodes and validates model output. Anything short of five
// whole-number category scores in [1,5] and an overall score in [1,5] is rejected.
func parseReport(text, brand string) (ReportPayload, error) {
	var raw rawReport
	if err := decodeEmbedded(text, &raw); err != nil {
		return ReportPayload{}, fmt.Errorf("decode report: %w", err)
	}
	if err := validate.Struct(raw); err != nil {
		return ReportPayload{}, fmt.Errorf("validate report: %w", err)
	}

	out := ReportPayload{
		Brand:              brand,
		Categories:         make(wardrobe.Categories, len(wardrobe.CategoryKeys)),
		OverallScore:       raw.OverallScore,
		OverallDescription: strings.TrimSpace(raw.OverallDescription),
		RegionalAlerts:     wardrobe.RegionalAlerts{},
	}
	for _, k := range wardrobe.CategoryKeys {
		c, ok := raw.Categories[k]
		if !ok {
			return ReportPayload{}, fmt.Errorf("validate report: missing category %s", k)
		}
		if c.Score != math.Trunc(c.Score) || c.Score < 1 || c.Score > 5 {
			return ReportPayload{}, fmt.Errorf("validate report: %s score %v outside 1..5", k, c.Score)
		}
		out.Categories[k] = wardrobe.CategoryScore{Score: int(c.Score), Description: strings.TrimSpace(c.Description)}
	}
	for region, alert := range raw.RegionalAlerts {
		code := strings.ToUpper(strings.TrimSpace(region))
		if !wardrobe.IsRegionCode(code) {
			continue
		}
		if alert != nil && strings.TrimSpace(*alert) == "" {
			alert = nil
		}
		out.RegionalAlerts[code] = alert
	}
	return out, nil
}

// LLMReportGenerator prompts a text model for the five-category report.
type LLMReportGenerator struct {
	log     *logger.Logger
	gen     TextGenerator
	timeout time.Duration
}

func NewLLMReportGenerator(log *logger.Logger, gen TextGenerator, timeout time.Duration) *LLMReportGenerator {
	return &LLMReportGenerator{log: log.With("service", "LLMReportGenerator"), gen: gen, timeout: timeout}
}

func (g *LLMReportGenerator) Generate(ctx context.Context, brand string, info wardrobe.BrandInfo) Outcome[ReportPayload] {
	if g == nil || g.gen == nil {
		return fallback(FallbackReport(brand), errors.New("report generator not configured"))
	}
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.gen.GenerateText(ctx, reportSystemPrompt, reportUserPrompt(brand, info))
	if err != nil {
		return fallback(FallbackReport(brand), fmt.Errorf("report model: %w", err))
	}
	report, err := parseReport(text, brand)
	if err != nil {
		g.log.Debug("Rejected model report", "brand", brand, "error", err)
		return fallback(FallbackReport(brand), err)
	}
	return ok(report)
}
