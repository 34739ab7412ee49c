package app

import (
	"context"
	"fmt"

	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI  *openai.Client
	Vision  *gcp.VisionClient
	Search  *gcp.SearchClient
	Objects ObjectStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Object storage
	objects, err := resolveObjectStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Anything built before a later failure is released on the way out.
	partial := &Clients{Objects: objects}

	// OpenAI
	oa, err := openai.NewClient(log, openai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		VisionModel: cfg.OpenAIVisionModel,
		Temperature: 0.3,
		Timeout:     cfg.Timeouts.Report,
	})
	if err != nil {
		partial.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Vision is only needed for logo/web detection.
	var vision *gcp.VisionClient
	if cfg.BrandIdentifier == BrandIdentifierVision {
		vision, err = gcp.NewVisionClient(ctx, log, cfg.Timeouts.Identify)
		if err != nil {
			partial.Close()
			return Clients{}, fmt.Errorf("init vision client: %w", err)
		}
		partial.Vision = vision
	}

	// Custom Search
	var search *gcp.SearchClient
	if cfg.SearchAPIKey != "" || cfg.SearchEngineID != "" {
		search, err = gcp.NewSearchClient(ctx, log, gcp.SearchConfig{
			APIKey:        cfg.SearchAPIKey,
			EngineID:      cfg.SearchEngineID,
			RatePerSecond: cfg.SearchRatePerSec,
		})
		if err != nil {
			partial.Close()
			return Clients{}, fmt.Errorf("init search client: %w", err)
		}
	} else {
		log.Warn("Custom Search not configured; alternatives will come from the language model")
	}

	return Clients{
		OpenAI:  oa,
		Vision:  vision,
		Search:  search,
		Objects: objects,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Vision != nil {
		_ = c.Vision.Close()
	}
	if closer, ok := c.Objects.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
