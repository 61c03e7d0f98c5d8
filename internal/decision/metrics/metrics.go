// Package metrics exposes Prometheus collectors for the decision write path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for decision operations.
type Metrics struct {
	DecisionsSaved     prometheus.Counter
	DecisionsSkipped   prometheus.Counter
	BatchesReceived    prometheus.Counter
	PublishFailures    prometheus.Counter
	SaveBatchLatency   prometheus.Histogram
	BatchSize          prometheus.Histogram
	DecisionsRetracted prometheus.Counter
}

// New registers and returns decision metrics collectors.
func New() *Metrics {
	return &Metrics{
		DecisionsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_decisions_saved_total",
			Help: "Total number of decisions upserted, audited and published",
		}),
		DecisionsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_decisions_skipped_total",
			Help: "Total number of decisions skipped for unknown expressions",
		}),
		BatchesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_decision_batches_total",
			Help: "Total number of decision write batches received",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_decision_publish_failures_total",
			Help: "Total number of raw channel publish failures after commit",
		}),
		SaveBatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "privacy_consent_decision_save_batch_latency_seconds",
			Help:    "Latency of full decision batch writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "privacy_consent_decision_batch_size",
			Help:    "Distribution of decision batch sizes",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		DecisionsRetracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privacy_consent_decisions_retracted_total",
			Help: "Total number of current decisions retracted",
		}),
	}
}
