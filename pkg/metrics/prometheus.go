package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FlightsCaptured prometheus.Counter
	HistoryEntries  prometheus.Counter
	LegsIngested    prometheus.Counter
	ParseErrors     *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	SweepsTotal     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		FlightsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_captured_total",
			Help:      "The total number of flight entries captured from the operations board",
		}),
		HistoryEntries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_entries_total",
			Help:      "The total number of flight change-history entries written",
		}),
		LegsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_legs_ingested_total",
			Help:      "The total number of scheduled flight legs ingested from pairing files",
		}),
		ParseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "The total number of parse errors by stage",
		}, []string{"stage"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time taken to capture one day from the operations board",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "The total number of capture sweeps by outcome",
		}, []string{"status"}),
	}
}
