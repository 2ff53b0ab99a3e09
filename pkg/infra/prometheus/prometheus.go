package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in seconds; remote detector calls dominate.
	latencyBuckets = []float64{
		0.01, 0.025, 0.05,
		0.1, 0.25, 0.5,
		1, 2.5, 5,
		10, 30,
	}

	RunTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyguard_runs_total",
			Help: "Total number of policy runs by outcome",
		},
		[]string{"outcome"},
	)

	DetectorLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polyguard_detector_latency_seconds",
			Help:    "Detector evaluation latency, remote call inclusive",
			Buckets: latencyBuckets,
		},
		[]string{"phase", "detector"},
	)

	DetectorErrors = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyguard_detector_errors_total",
			Help: "Detector evaluations that ended in an error",
		},
		[]string{"phase", "detector"},
	)

	BlockedItems = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyguard_blocked_items_total",
			Help: "Blocked items produced by policy evaluation",
		},
		[]string{"phase", "detector"},
	)
)

// Registry exposes the metric registry for scraping or test inspection.
func Registry() *prometheus.Registry {
	return registry
}
