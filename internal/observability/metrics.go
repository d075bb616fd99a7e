package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// generator and converter.
type Metrics struct {
	DevicesProcessed prometheus.Counter
	SamplesWritten   prometheus.Counter
	GeneratorRunning prometheus.Gauge
	RunDuration      prometheus.Histogram
	LastRunSuccess   prometheus.Gauge

	// Converter metrics.
	FeaturesConverted prometheus.Counter
	ConvertErrors     *prometheus.CounterVec // labels: kind={parse,io}

	registry *prometheus.Registry
}

func newMetrics() *Metrics {
	return &Metrics{
		DevicesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainsim",
			Name:      "devices_processed_total",
			Help:      "Total device series written to completion.",
		}),
		SamplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainsim",
			Name:      "samples_written_total",
			Help:      "Total samples written to a sink.",
		}),
		GeneratorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainsim",
			Name:      "generator_running",
			Help:      "1 while a generator run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainsim",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete generator run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainsim",
			Name:      "last_run_success",
			Help:      "1 if the most recent generator run succeeded, 0 if it failed.",
		}),
		FeaturesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainsim",
			Name:      "features_converted_total",
			Help:      "Total GeoJSON features produced by the converter.",
		}),
		ConvertErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainsim",
			Name:      "convert_errors_total",
			Help:      "Converter failures by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DevicesProcessed,
		m.SamplesWritten,
		m.GeneratorRunning,
		m.RunDuration,
		m.LastRunSuccess,
		m.FeaturesConverted,
		m.ConvertErrors,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}
