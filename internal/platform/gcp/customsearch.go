package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// maxSearchResults is the Custom Search API's per-request ceiling.
const maxSearchResults = 10

type SearchConfig struct {
	APIKey        string
	EngineID      string
	RatePerSecond float64
	Timeout       time.Duration
	ExtraOptions  []option.ClientOption
}

type SearchResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	ImageURL string `json:"image_url"`
}

// SearchClient wraps the Programmable Search (Custom Search JSON) API.
type SearchClient struct {
	log      *logger.Logger
	svc      *customsearch.Service
	engineID string
	limiter  *rate.Limiter
	timeout  time.Duration
}

func NewSearchClient(ctx context.Context, log *logger.Logger, cfg SearchConfig) (*SearchClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing env var GOOGLE_SEARCH_API_KEY")
	}
	if strings.TrimSpace(cfg.EngineID) == "" {
		return nil, fmt.Errorf("missing env var GOOGLE_SEARCH_ENGINE_ID")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ExtraOptions...)
	svc, err := customsearch.NewService(ctxutil.Default(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("customsearch service: %w", err)
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SearchClient{
		log:      log.With("service", "gcp.CustomSearch"),
		svc:      svc,
		engineID: cfg.EngineID,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		timeout:  timeout,
	}, nil
}

// Search runs a web search and returns at most n results in ranking order.
func (c *SearchClient) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query required")
	}
	if n <= 0 || n > maxSearchResults {
		n = maxSearchResults
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	start := time.Now()
	res, err := c.svc.Cse.List().Cx(c.engineID).Q(query).Num(int64(n)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}
	out := make([]SearchResult, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		out = append(out, SearchResult{
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
			ImageURL: pagemapImage(item.Pagemap),
		})
	}
	c.log.Debug("custom search done", "results", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// pagemapImage prefers the page's primary image over its thumbnail.
func pagemapImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var pm struct {
		CSEImage     []struct{ Src string `json:"src"` } `json:"cse_image"`
		CSEThumbnail []struct{ Src string `json:"src"` } `json:"cse_thumbnail"`
	}
	if err := json.Unmarshal(raw, &pm); err != nil {
		return ""
	}
	if len(pm.CSEImage) > 0 && pm.CSEImage[0].Src != "" {
		return pm.CSEImage[0].Src
	}
	if len(pm.CSEThumbnail) > 0 {
		return pm.CSEThumbnail[0].Src
	}
	return ""
}
