package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "safewalk"

// Metrics holds the Prometheus collectors for the HTTP surface and the
// danger point store.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route

	// Danger point store.
	ReportsSubmitted prometheus.Counter
	ReportsEvicted   prometheus.Counter
	ReportsRemoved   prometheus.Counter
	StorageRetries   prometheus.Counter

	// Danger zone queries.
	ZoneQueries       prometheus.Counter
	ZoneCandidates    prometheus.Histogram
	ZoneClusters      prometheus.Histogram
	ZoneQueryDuration prometheus.Histogram
	SignalsSubmitted  *prometheus.CounterVec // labels: signal
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Danger reports accepted.",
		}),
		ReportsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_evicted_total",
			Help:      "Danger reports evicted because their owner reached the cap.",
		}),
		ReportsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_removed_total",
			Help:      "Danger reports deleted by their owner.",
		}),
		StorageRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Store operations re-run after a transient storage failure.",
		}),
		ZoneQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "danger_zone_queries_total",
			Help:      "Danger zone queries answered.",
		}),
		ZoneCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "danger_zone_candidates",
			Help:      "Points inside the query radius per danger zone query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ZoneClusters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "danger_zone_clusters",
			Help:      "Clusters returned per danger zone query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		ZoneQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "danger_zone_query_duration_seconds",
			Help:      "Time spent loading and clustering one danger zone query.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SignalsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_submitted_total",
			Help:      "Grid safety signals recorded by type.",
		}, []string{"signal"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.ReportsSubmitted,
		m.ReportsEvicted,
		m.ReportsRemoved,
		m.StorageRetries,
		m.ZoneQueries,
		m.ZoneCandidates,
		m.ZoneClusters,
		m.ZoneQueryDuration,
		m.SignalsSubmitted,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
