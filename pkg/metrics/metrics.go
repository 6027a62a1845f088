package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chalkboard_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// DirectoryLookups counts directory cache lookups by resource (districts|schools)
	// and outcome (hit|refresh|error).
	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chalkboard_directory_lookups_total",
			Help: "Total number of education-directory cache lookups",
		},
		[]string{"resource", "outcome"},
	)

	// DirectoryRowsUpserted counts cache rows written during upstream refreshes.
	DirectoryRowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chalkboard_directory_rows_upserted_total",
			Help: "Total number of directory cache rows upserted",
		},
		[]string{"resource"},
	)

	// WebhookEvents counts identity-provider webhook deliveries by type and result.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chalkboard_webhook_events_total",
			Help: "Total number of identity webhook events processed",
		},
		[]string{"type", "result"},
	)
)
