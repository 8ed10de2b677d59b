// Package metrics holds Prometheus instruments for import runs. medmatch is
// a short-lived CLI, so metrics are exported by writing a node-exporter
// textfile instead of serving /metrics.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds import instruments.
type Metrics struct {
	Imports             *prometheus.CounterVec
	Files               *prometheus.CounterVec
	Strategies          *prometheus.CounterVec
	PersistenceFailures prometheus.Counter
	ReportingFailures   prometheus.Counter
	ImportDuration      prometheus.Histogram
	CatalogEntries      prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates and registers import metrics with a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medmatch",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Import runs by result (completed, cancelled, failed).",
		}, []string{"result"}),
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medmatch",
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Picked files by disposition (matched, unsupported, excluded).",
		}, []string{"disposition"}),
		Strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medmatch",
			Subsystem: "import",
			Name:      "matches_total",
			Help:      "Matched files by the strategy that identified them.",
		}, []string{"strategy"}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medmatch",
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Failed reads or writes of the matched file map.",
		}),
		ReportingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medmatch",
			Subsystem: "reporting",
			Name:      "failures_total",
			Help:      "Failed submissions of unsupported files.",
		}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medmatch",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Wall time of import runs.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
		CatalogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "medmatch",
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Entries in the loaded catalog.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Imports,
		m.Files,
		m.Strategies,
		m.PersistenceFailures,
		m.ReportingFailures,
		m.ImportDuration,
		m.CatalogEntries,
	)
	return m
}

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// WriteTextfile writes all metrics in the text exposition format. The file is
// replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
