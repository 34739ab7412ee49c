package app

import (
	"fmt"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/services"
)

type Services struct {
	Analyzer *analysis.Orchestrator
	Wardrobe services.WardrobeService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, store types.Store, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	intake, err := analysis.NewImageIntake(log, clients.Objects, analysis.IntakeConfig{
		Strict:       cfg.StrictImageStorage,
		WriteTimeout: cfg.Timeouts.StoreWrite,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init image intake: %w", err)
	}

	var brand analysis.BrandIdentifier
	switch cfg.BrandIdentifier {
	case BrandIdentifierVision:
		if clients.Vision == nil {
			return Services{}, fmt.Errorf("BRAND_IDENTIFIER=vision requires a vision client")
		}
		brand = analysis.NewVisionBrandIdentifier(log, clients.Vision, cfg.Timeouts.Identify)
	default:
		brand = analysis.NewLLMBrandIdentifier(log, clients.OpenAI, cfg.Timeouts.Identify)
	}

	report := analysis.NewLLMReportGenerator(log, clients.OpenAI, cfg.Timeouts.Report)

	alternatives, err := wireAlternatives(log, cfg, clients)
	if err != nil {
		return Services{}, err
	}

	orchestrator, err := analysis.NewOrchestrator(analysis.OrchestratorDeps{
		Log:          log,
		Intake:       intake,
		Brand:        brand,
		Report:       report,
		Alternatives: alternatives,
		Store:        store,
		Metrics:      metrics,
		Timeouts:     cfg.Timeouts,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init orchestrator: %w", err)
	}

	return Services{
		Analyzer: orchestrator,
		Wardrobe: services.NewWardrobeService(log, store, clients.Objects),
	}, nil
}

func wireAlternatives(log *logger.Logger, cfg Config, clients Clients) (analysis.AlternativeFinder, error) {
	generative := analysis.NewGenerativeFinder(log, clients.OpenAI, cfg.Timeouts.Alternatives)

	var search analysis.AlternativeFinder
	if clients.Search != nil {
		filter, err := analysis.LoadRetailFilter(cfg.RetailFilterPath)
		if err != nil {
			return nil, err
		}
		queries := analysis.NewLLMQueryGenerator(clients.OpenAI, cfg.Timeouts.Alternatives)
		search = analysis.NewSearchFinder(log, queries, clients.Search, filter, cfg.Timeouts.Alternatives)
	}

	policy := cfg.AlternativesPolicy
	if search == nil && policy == analysis.PolicySearchFirst {
		log.Warn("Search unavailable; using generative alternatives only", "configured_policy", policy)
		policy = analysis.PolicyGenerativeOnly
	}
	finder, err := analysis.NewPolicyFinder(log, policy, search, generative)
	if err != nil {
		return nil, fmt.Errorf("init alternative finder: %w", err)
	}
	return finder, nil
}
