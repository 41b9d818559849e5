package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "covid_tracker"
	jobName   = "covid_tracker"
)

// Metrics holds the Prometheus gauges and counters describing one run.
// A run is a batch job, so values are pushed to a Pushgateway at the end
// instead of being scraped.
type Metrics struct {
	Registry *prometheus.Registry

	RowsLoaded        *prometheus.GaugeVec // labels: source={remote,local}
	RowsCleaned       prometheus.Gauge
	CountriesRendered prometheus.Gauge
	SourceFallbacks   prometheus.Counter

	StageDuration    *prometheus.GaugeVec   // labels: stage={load,clean,render,publish}
	ArtifactsWritten *prometheus.CounterVec // labels: renderer

	ObservationsPublished prometheus.Counter
	PublishErrors         prometheus.Counter

	LastSuccess prometheus.Gauge
}

// NewMetrics creates all run metrics on a private registry, so it is safe to
// call more than once in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_loaded",
			Help:      "Rows decoded from the dataset, by source.",
		}, []string{"source"}),
		RowsCleaned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_cleaned",
			Help:      "Rows remaining after filtering and null handling.",
		}),
		CountriesRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "countries_rendered",
			Help:      "Distinct countries present in the cleaned table.",
		}),
		SourceFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fallbacks_total",
			Help:      "Times the remote dataset failed and the local copy was used.",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Output files written, by renderer.",
		}, []string{"renderer"}),
		ObservationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_published_total",
			Help:      "Cleaned observations written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed.",
		}),
	}

	m.Registry.MustRegister(
		m.RowsLoaded,
		m.RowsCleaned,
		m.CountriesRendered,
		m.SourceFallbacks,
		m.StageDuration,
		m.ArtifactsWritten,
		m.ObservationsPublished,
		m.PublishErrors,
		m.LastSuccess,
	)

	return m
}

// Push replaces the job's metric group on the Pushgateway at url, so the
// gateway always holds the most recent run.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, jobName).
		Gatherer(m.Registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
