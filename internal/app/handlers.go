package app

import (
	httpserver "github.com/yungbote/fitprint-backend/internal/http"
	httpH "github.com/yungbote/fitprint-backend/internal/http/handlers"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Analysis *httpH.AnalysisHandler
	Wardrobe *httpH.WardrobeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, store *Store) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(store.Ping),
		Analysis: httpH.NewAnalysisHandler(httpH.AnalysisHandlerDeps{
			Log:            log,
			Analyzer:       services.Analyzer,
			Wardrobe:       services.Wardrobe,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}),
		Wardrobe: httpH.NewWardrobeHandler(services.Wardrobe),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *httpserver.Server {
	return httpserver.NewServer(cfg.Addr(), httpserver.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,
		// Multipart framing on top of the photo itself.
		MaxBodyBytes:    cfg.MaxUploadBytes + 2<<20,
		HealthHandler:   handlers.Health,
		AnalysisHandler: handlers.Analysis,
		WardrobeHandler: handlers.Wardrobe,
	})
}
