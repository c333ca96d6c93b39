// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_assistant_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm_assistant_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// Assistant metrics
	AssistantInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_assistant_invocations_total",
			Help: "Total model invocations",
		},
		[]string{"mode", "status"},
	)

	AssistantLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pm_assistant_invocation_latency_seconds",
			Help:    "Model invocation latency",
			Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"model"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_assistant_tokens_total",
			Help: "Estimated tokens consumed",
		},
		[]string{"direction"}, // "input" or "output"
	)

	CostUSDTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_assistant_estimated_cost_usd_total",
			Help: "Estimated model cost in USD",
		},
	)

	TelemetryPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_assistant_telemetry_persist_failures_total",
			Help: "Telemetry events that could not be stored",
		},
	)

	TelemetryExportFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_assistant_telemetry_export_failures_total",
			Help: "Telemetry events the trace exporter rejected",
		},
	)

	// Conversation metrics
	ThreadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_assistant_threads_created_total",
			Help: "Total threads created",
		},
		[]string{"category"},
	)

	ArtifactsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_assistant_artifacts_saved_total",
			Help: "Total email drafts and action plans saved",
		},
		[]string{"kind"},
	)
)
