package app

import (
	"context"
	"fmt"

	httpserver "github.com/yungbote/fitprint-backend/internal/http"
	"github.com/yungbote/fitprint-backend/internal/observability"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *Store
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	otelShutdown func(context.Context) error
}

// New loads configuration and wires every component. The caller owns the
// returned App and must call Close.
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,

		StoreBackend:       string(cfg.StoreBackend),
		ObjectStorageMode:  string(storageConfig(cfg).Mode),
		BrandIdentifier:    cfg.BrandIdentifier,
		AlternativesPolicy: string(cfg.AlternativesPolicy),
	})
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics(true)
	}

	store, err := openStore(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	services, err := wireServices(log, cfg, clients, store.Wardrobe, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = services

	handlers := wireHandlers(log, cfg, services, store)
	a.Server = wireServer(log, cfg, handlers, a.Metrics)
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
		errCh <- a.Server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("Shutting down HTTP server...", "timeout", a.Cfg.shutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Cfg.shutdownTimeout())
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("Store close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.shutdownTimeout())
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
