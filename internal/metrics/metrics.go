// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_service_request_duration_seconds",
			Help:    "Total time taken for requests in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180, 300},
		},
		[]string{"provider", "endpoint"},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_request_count_total",
			Help: "Total number of requests processed",
		},
		[]string{"provider", "endpoint", "status"},
	)

	EstimatedTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_estimated_tokens_total",
			Help: "Whitespace-estimated tokens processed, not a billing-accurate count",
		},
		[]string{"provider", "call_type"},
	)

	EmbeddingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_embedding_fallbacks_total",
			Help: "Embedding calls re-dispatched to the fallback provider",
		},
		[]string{"from", "to"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_error_count",
			Help: "Error count",
		},
		[]string{"provider", "endpoint", "kind"},
	)

	AnalyticsFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_service_analytics_failures_total",
			Help: "Call records dropped because the analytics service was unreachable",
		},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_service_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
