package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so callers never need to branch on METRICS_ENABLED.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	pipelineRuns          *prometheus.CounterVec
	stageLatency          *prometheus.HistogramVec
	degradations          *prometheus.CounterVec
	alternativesPersisted prometheus.Histogram
	collaboratorErrors    *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry. withRuntime adds the
// Go runtime and process collectors (off in tests to keep registries cheap).
func NewMetrics(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitprint_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fitprint_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fitprint_http_requests_inflight",
			Help: "HTTP requests currently being served.",
		}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitprint_pipeline_runs_total",
			Help: "Outfit analyses by terminal outcome.",
		}, []string{"outcome"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fitprint_pipeline_stage_seconds",
			Help:    "Time spent in each pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage", "fallback"}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitprint_pipeline_degradations_total",
			Help: "Non-fatal degradations absorbed by the pipeline, by kind.",
		}, []string{"kind"}),
		alternativesPersisted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fitprint_alternatives_persisted",
			Help:    "Number of alternatives persisted per completed analysis.",
			Buckets: []float64{0, 1, 2, 3},
		}),
		collaboratorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitprint_collaborator_errors_total",
			Help: "Errors returned by external collaborators.",
		}, []string{"collaborator"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.pipelineRuns, m.stageLatency, m.degradations, m.alternativesPersisted, m.collaboratorErrors,
	)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStage(stage string, fallback bool, dur time.Duration) {
	if m == nil {
		return
	}
	fb := "false"
	if fallback {
		fb = "true"
	}
	m.stageLatency.WithLabelValues(stage, fb).Observe(dur.Seconds())
}

func (m *Metrics) IncDegradation(kind string) {
	if m == nil {
		return
	}
	m.degradations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncPipelineRun(outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAlternativesPersisted(n int) {
	if m == nil {
		return
	}
	m.alternativesPersisted.Observe(float64(n))
}

func (m *Metrics) IncCollaboratorError(collaborator string) {
	if m == nil {
		return
	}
	m.collaboratorErrors.WithLabelValues(collaborator).Inc()
}
