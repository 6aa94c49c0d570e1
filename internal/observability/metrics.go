package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "piracy_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the enrichment run.
type Metrics struct {
	IncidentsRead      prometheus.Counter
	IncidentsEnriched  prometheus.Counter
	IncidentsAbsent    *prometheus.CounterVec // labels: reason={before_validity,no_cell,missing_value}
	IncidentsPublished prometheus.Counter
	PipelineRunning    prometheus.Gauge
	RunDuration        prometheus.Histogram

	// Dataset metrics.
	DatasetQueries       *prometheus.CounterVec // labels: outcome={success,empty,error}
	DatasetQueryDuration prometheus.Histogram
	DatasetCache         *prometheus.CounterVec // labels: result={hit,miss}

	NarrativeLabels *prometheus.CounterVec // labels: label
}

func newMetrics() *Metrics {
	return &Metrics{
		IncidentsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_read_total",
			Help:      "Total incident rows read from the source file.",
		}),
		IncidentsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_enriched_total",
			Help:      "Incidents that received a wave height.",
		}),
		IncidentsAbsent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_absent_total",
			Help:      "Incidents left without a wave height, by reason.",
		}, []string{"reason"}),
		IncidentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_published_total",
			Help:      "Enriched incidents written to the sink topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an enrichment run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-enrich-load run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		DatasetQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_queries_total",
			Help:      "Wave dataset range queries by outcome.",
		}, []string{"outcome"}),
		DatasetQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_query_duration_seconds",
			Help:      "Wave dataset range query duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_total",
			Help:      "Selection cache lookups by result.",
		}, []string{"result"}),
		NarrativeLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_labels_total",
			Help:      "Narrative classifier matches by label.",
		}, []string{"label"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.IncidentsRead,
		m.IncidentsEnriched,
		m.IncidentsAbsent,
		m.IncidentsPublished,
		m.PipelineRunning,
		m.RunDuration,
		m.DatasetQueries,
		m.DatasetQueryDuration,
		m.DatasetCache,
		m.NarrativeLabels,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
