package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// Annotation is a single detected label with its detector score.
type Annotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// ImageSignals is what Vision can tell us about a garment photo that is
// useful for guessing a brand.
type ImageSignals struct {
	Logos           []Annotation `json:"logos,omitempty"`
	WebEntities     []Annotation `json:"web_entities,omitempty"`
	BestGuessLabels []string     `json:"best_guess_labels,omitempty"`
	PageTitles      []string     `json:"page_titles,omitempty"`
}

// Empty reports whether Vision returned nothing usable.
func (s *ImageSignals) Empty() bool {
	return s == nil || (len(s.Logos) == 0 && len(s.WebEntities) == 0 && len(s.BestGuessLabels) == 0 && len(s.PageTitles) == 0)
}

type VisionClient struct {
	log     *logger.Logger
	client  *vision.ImageAnnotatorClient
	timeout time.Duration
}

func NewVisionClient(ctx context.Context, log *logger.Logger, timeout time.Duration) (*VisionClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := vision.NewImageAnnotatorClient(ctxutil.Default(ctx), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionClient{log: log.With("service", "gcp.Vision"), client: c, timeout: timeout}, nil
}

func (v *VisionClient) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

// DetectBrandSignals runs logo and web detection against a publicly readable image URI.
func (v *VisionClient) DetectBrandSignals(ctx context.Context, imageURI string) (*ImageSignals, error) {
	imageURI = strings.TrimSpace(imageURI)
	if imageURI == "" {
		return nil, fmt.Errorf("image uri required")
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), v.timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Source: &visionpb.ImageSource{ImageUri: imageURI}},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: 5},
			{Type: visionpb.Feature_WEB_DETECTION, MaxResults: 10},
		},
	}
	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if resp == nil || len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("vision annotate: empty response")
	}
	r := resp.GetResponses()[0]
	if r.GetError() != nil && r.GetError().GetMessage() != "" {
		return nil, fmt.Errorf("vision annotate: %s", r.GetError().GetMessage())
	}
	signals := signalsFromResponse(r)
	v.log.Debug("vision signals",
		"logos", len(signals.Logos),
		"web_entities", len(signals.WebEntities),
		"pages", len(signals.PageTitles),
	)
	return signals, nil
}

func signalsFromResponse(r *visionpb.AnnotateImageResponse) *ImageSignals {
	out := &ImageSignals{}
	if r == nil {
		return out
	}
	for _, l := range r.GetLogoAnnotations() {
		if d := collapseWhitespace(l.GetDescription()); d != "" {
			out.Logos = append(out.Logos, Annotation{Description: d, Score: float64(l.GetScore())})
		}
	}
	web := r.GetWebDetection()
	if web == nil {
		return out
	}
	for _, e := range web.GetWebEntities() {
		if d := collapseWhitespace(e.GetDescription()); d != "" {
			out.WebEntities = append(out.WebEntities, Annotation{Description: d, Score: float64(e.GetScore())})
		}
	}
	for _, l := range web.GetBestGuessLabels() {
		if s := collapseWhitespace(l.GetLabel()); s != "" {
			out.BestGuessLabels = append(out.BestGuessLabels, s)
		}
	}
	for _, p := range web.GetPagesWithMatchingImages() {
		if s := collapseWhitespace(p.GetPageTitle()); s != "" {
			out.PageTitles = append(out.PageTitles, s)
		}
	}
	return out
}
