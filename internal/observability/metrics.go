package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the converter.
type Metrics struct {
	UnitsTransformed prometheus.Counter
	RowsRead         prometheus.Counter
	RowsWritten      prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge
	LastSuccess      prometheus.Gauge

	UnitRows    prometheus.Histogram
	RunDuration prometheus.Histogram

	// MissingCells counts Missing output values. labels: column
	MissingCells *prometheus.CounterVec

	KafkaMessagesProduced prometheus.Counter
}

// NewMetrics creates and registers all converter metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UnitsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "units_transformed_total",
			Help:      "Total input files or sheets transformed.",
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "rows_read_total",
			Help:      "Total input rows read from spreadsheets.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "rows_written_total",
			Help:      "Total ODV data rows written.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "transform_errors_total",
			Help:      "Total units that failed to transform.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "odv_etl",
			Name:      "pipeline_running",
			Help:      "1 while a conversion run is active, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "odv_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful conversion run.",
		}),
		UnitRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "odv_etl",
			Name:      "unit_rows",
			Help:      "Number of rows per transformed unit.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "odv_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MissingCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "missing_cells_total",
			Help:      "Missing output values by ODV column.",
		}, []string{"column"}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odv_etl",
			Name:      "kafka_messages_produced_total",
			Help:      "Total rows published to the Kafka sink topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UnitsTransformed,
		m.RowsRead,
		m.RowsWritten,
		m.TransformErrors,
		m.PipelineRunning,
		m.LastSuccess,
		m.UnitRows,
		m.RunDuration,
		m.MissingCells,
		m.KafkaMessagesProduced,
	}
}

// WriteTextfile writes the default registry in the text exposition format,
// for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
