package app

import (
	"context"
	"testing"

	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/platform/gcp"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

func TestWireClientsReleasesObjectStoreOnFailure(t *testing.T) {
	cases := map[string]func(*Config){
		"openai": func(c *Config) { c.OpenAIAPIKey = "" },
		"search": func(c *Config) { c.SearchEngineID = "" },
	}
	for name, mutate := range cases {
		stubStoreConstructors(t)
		store := &stubObjectStore{bucket: "outfits-test"}
		newOutfitBucket = func(context.Context, *logger.Logger, gcp.BucketConfig) (ObjectStore, error) {
			return store, nil
		}
		cfg := Config{
			ObjectStorageMode: "gcs",
			OutfitBucketName:  "outfits-test",
			BrandIdentifier:   BrandIdentifierLLM,
			OpenAIAPIKey:      "sk-test",
			SearchAPIKey:      "search-key",
			SearchEngineID:    "engine",
			Timeouts:          analysis.DefaultTimeouts(),
		}
		mutate(&cfg)
		if _, err := wireClients(context.Background(), logger.Nop(), cfg); err == nil {
			t.Fatalf("%s: want error", name)
		}
		if !store.closed {
			t.Fatalf("%s: object store left open", name)
		}
	}
}
