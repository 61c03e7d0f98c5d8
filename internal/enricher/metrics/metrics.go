// Package metrics exposes Prometheus collectors for the enrichment path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for enrichment operations.
type Metrics struct {
	TriggersReceived  prometheus.Counter
	Enriched          prometheus.Counter
	NotFound          prometheus.Counter
	PublishFailures   prometheus.Counter
	EnrichmentLatency prometheus.Histogram
}

// New registers and returns enrichment metrics collectors.
func New() *Metrics {
	return &Metrics{
		TriggersReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_enrichment_triggers_total",
			Help: "Total number of enrichment triggers received",
		}),
		Enriched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_enriched_decisions_total",
			Help: "Total number of decisions enriched and published",
		}),
		NotFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_enrichment_not_found_total",
			Help: "Total number of triggers whose audit id had no enrichable context",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_enrichment_publish_failures_total",
			Help: "Total number of enriched channel publish failures",
		}),
		EnrichmentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "privacy_consent_enrichment_latency_seconds",
			Help:    "Latency of full enrichment rounds in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
