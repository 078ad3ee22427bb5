package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. Store-local
// latency histograms live next to their stores.
type Metrics struct {
	ArtifactsCreated   *prometheus.CounterVec
	SupersedeConflicts prometheus.Counter
	JobsProcessed      *prometheus.CounterVec
	ProviderLatency    prometheus.Histogram
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		ArtifactsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callvault_artifacts_created_total",
			Help: "Total artifacts created, by type and producer",
		}, []string{"type", "producer"}),
		SupersedeConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "callvault_supersede_conflicts_total",
			Help: "Supersede calls that lost the conditional version write",
		}),
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "callvault_jobs_processed_total",
			Help: "Background jobs processed, by kind and outcome",
		}, []string{"kind", "outcome"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "callvault_provider_call_duration_seconds",
			Help:    "Latency of outbound provider calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
