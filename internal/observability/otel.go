package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/fitprint-backend/internal/platform/envutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

// PipelineTracerName scopes the spans emitted by the outfit analysis pipeline.
const PipelineTracerName = "fitprint/pipeline"

const (
	defaultServiceName = "fitprint-api"
	defaultSampleRatio = 0.1
)

// OtelConfig describes the running deployment. The backend fields end up as
// resource attributes so traces can be split by store and collaborator choice.
type OtelConfig struct {
	ServiceName        string
	Environment        string
	Version            string
	StoreBackend       string
	ObjectStorageMode  string
	BrandIdentifier    string
	AlternativesPolicy string
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

func resourceAttributes(cfg OtelConfig) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(name),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	}
	optional := []struct{ key, val string }{
		{"fitprint.store.backend", cfg.StoreBackend},
		{"fitprint.object_storage.mode", cfg.ObjectStorageMode},
		{"fitprint.brand_identifier", cfg.BrandIdentifier},
		{"fitprint.alternatives.policy", cfg.AlternativesPolicy},
	}
	for _, o := range optional {
		if v := strings.TrimSpace(o.val); v != "" {
			attrs = append(attrs, attribute.String(o.key, v))
		}
	}
	return attrs
}

// InitOTel installs the global tracer provider once. With OTEL_ENABLED unset
// it does nothing and the returned shutdown func is nil.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !envutil.Bool("OTEL_ENABLED", false) {
			return
		}
		res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
		if err != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
			sdktrace.WithResource(res),
		}
		if exporter, err := buildTraceExporter(ctx, log); err != nil {
			log.Warn("otel exporter init failed (continuing)", "error", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized",
			"store_backend", cfg.StoreBackend,
			"object_storage_mode", cfg.ObjectStorageMode,
			"endpoint", envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		)
	})
	return otelShutdown
}

// PipelineTracer returns the pipeline's tracer from the global provider.
// Before InitOTel, or with tracing disabled, it is a no-op tracer.
func PipelineTracer() trace.Tracer {
	return otel.Tracer(PipelineTracerName)
}

// sampleRatio reads OTEL_SAMPLER_RATIO, clamped to [0,1].
func sampleRatio() float64 {
	f := envutil.Float("OTEL_SAMPLER_RATIO", defaultSampleRatio)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// otlpHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k=v,k2=v2"), skipping
// malformed pairs.
func otlpHeaders() map[string]string {
	raw := envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func buildTraceExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	endpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if endpoint == "" {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false) {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if headers := otlpHeaders(); headers != nil {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	return otlptracehttp.New(ctx, opts...)
}
