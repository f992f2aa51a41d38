// Package metrics records scan statistics as Prometheus metrics and writes
// them in the node exporter textfile format.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
)

// Document outcomes.
const (
	OutcomeClassified = "classified"
	OutcomeSkipped    = "skipped"
)

// Metrics holds the collectors for one process. Each Metrics owns its
// registry, so several can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal      *prometheus.CounterVec
	FeaturesTotal       *prometheus.CounterVec
	MethodHintsTotal    *prometheus.CounterVec
	ExtractDuration     prometheus.Histogram
	LastRunTimestamp    prometheus.Gauge
	LastRunDurationSecs prometheus.Gauge
}

// New creates and registers the collectors.
//
// Metrics:
//   - synthscan_documents_total{outcome} - documents classified or skipped
//   - synthscan_features_total{field} - documents with a feature set
//   - synthscan_method_hints_total{hint} - documents per method hint
//   - synthscan_extract_duration_seconds - text extraction latency
//   - synthscan_last_run_timestamp_seconds - start time of the last scan
//   - synthscan_last_run_duration_seconds - wall time of the last scan
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthscan_documents_total",
				Help: "Total number of documents processed, by outcome",
			},
			[]string{"outcome"},
		),

		FeaturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthscan_features_total",
				Help: "Total number of classified documents with a feature set",
			},
			[]string{"field"},
		),

		MethodHintsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthscan_method_hints_total",
				Help: "Total number of classified documents per synthesis method hint",
			},
			[]string{"hint"},
		),

		ExtractDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synthscan_extract_duration_seconds",
				Help:    "Duration of document text extraction in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
			},
		),

		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "synthscan_last_run_timestamp_seconds",
				Help: "Unix time at which the last scan started",
			},
		),

		LastRunDurationSecs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "synthscan_last_run_duration_seconds",
				Help: "Wall time of the last scan in seconds",
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecord counts one classified document.
func (m *Metrics) ObserveRecord(rec corpus.Record) {
	m.DocumentsTotal.WithLabelValues(OutcomeClassified).Inc()
	for i, set := range rec.Features.Bools() {
		if set {
			m.FeaturesTotal.WithLabelValues(features.BoolFields[i]).Inc()
		}
	}
	m.MethodHintsTotal.WithLabelValues(string(rec.Features.SynthesisMethodHint)).Inc()
}

// ObserveSkipped counts one document that yielded no text.
func (m *Metrics) ObserveSkipped() {
	m.DocumentsTotal.WithLabelValues(OutcomeSkipped).Inc()
}

// ObserveRun records every document of a finished scan and its timing.
func (m *Metrics) ObserveRun(result *corpus.Result) {
	for _, rec := range result.Records {
		m.ObserveRecord(rec)
	}
	for range result.Skipped {
		m.ObserveSkipped()
	}
	m.LastRunTimestamp.Set(float64(result.StartedAt.Unix()))
	m.LastRunDurationSecs.Set(result.Duration.Seconds())
}

// WriteTextfile writes all metrics to path for the node exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// timedExtractor wraps a TextExtractor and observes extraction latency.
type timedExtractor struct {
	next     corpus.TextExtractor
	duration prometheus.Histogram
}

// InstrumentExtractor returns an extractor that records how long each
// extraction takes, including failed ones.
func (m *Metrics) InstrumentExtractor(next corpus.TextExtractor) corpus.TextExtractor {
	return &timedExtractor{next: next, duration: m.ExtractDuration}
}

func (t *timedExtractor) Extract(ctx context.Context, path string) (string, bool) {
	start := time.Now()
	text, ok := t.next.Extract(ctx, path)
	t.duration.Observe(time.Since(start).Seconds())
	return text, ok
}
