package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard service.
type Metrics struct {
	DatasetEvents      prometheus.Gauge
	DatasetRowsDropped *prometheus.CounterVec // labels: reason={missing_field,bad_time,duplicate}

	// Recomputation metrics.
	RecomputeDuration prometheus.Histogram
	FilteredEvents    prometheus.Histogram
	InvalidFilters    prometheus.Counter
	InsufficientData  *prometheus.CounterVec // labels: computation={correlation,timeseries}
	GIFEncodeDuration prometheus.Histogram

	ActiveSessions prometheus.Gauge

	// Interaction publishing metrics.
	InteractionsPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Plate boundary metrics.
	PlatesRequests    *prometheus.CounterVec // labels: outcome={success,error,rejected}
	PlatesCache       *prometheus.CounterVec // labels: result={hit,miss}
	PlatesAPIDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_events",
			Help:      "Events retained after loading the dataset.",
		}),
		DatasetRowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_rows_dropped_total",
			Help:      "Source rows dropped while loading, by reason.",
		}, []string{"reason"}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full filter-and-aggregate recomputation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		FilteredEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_events",
			Help:      "Number of events in the filtered view per recomputation.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		InvalidFilters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_filters_total",
			Help:      "Filter updates rejected for malformed ranges.",
		}),
		InsufficientData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insufficient_data_total",
			Help:      "Computations that had fewer than two points, by computation.",
		}, []string{"computation"}),
		GIFEncodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gif_encode_duration_seconds",
			Help:      "Duration of encoding one time-series animation.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions holding a filter state.",
		}),
		InteractionsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_published_total",
			Help:      "Filter interaction events published, by outcome.",
		}, []string{"outcome"}),
		PlatesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plates_requests_total",
			Help:      "Plate boundary fetches by outcome.",
		}, []string{"outcome"}),
		PlatesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plates_cache_total",
			Help:      "Plate boundary cache lookups by result.",
		}, []string{"result"}),
		PlatesAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plates_api_duration_seconds",
			Help:      "Plate boundary source request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DatasetEvents,
		m.DatasetRowsDropped,
		m.RecomputeDuration,
		m.FilteredEvents,
		m.InvalidFilters,
		m.InsufficientData,
		m.GIFEncodeDuration,
		m.ActiveSessions,
		m.InteractionsPublished,
		m.PlatesRequests,
		m.PlatesCache,
		m.PlatesAPIDuration,
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
