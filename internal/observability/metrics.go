package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profilegen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profilegen_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "path"},
	)

	// ProviderCallsTotal counts upstream calls by stage ("text", "image") and outcome.
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profilegen_provider_calls_total",
			Help: "Total number of calls to generation providers",
		},
		[]string{"stage", "outcome"},
	)

	AvatarFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profilegen_avatar_fallbacks_total",
			Help: "Total number of placeholder avatars substituted for failed image generations",
		},
		[]string{"reason"},
	)
)
