// Package observability provides Prometheus metrics for imports and journal merges.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Severity labels for import errors.
const (
	SeverityFatal = "fatal"
	SeverityRow   = "row"
	SeverityGroup = "group"
)

// Metrics holds the application's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RowsParsed        prometheus.Counter
	TradesSynthesized prometheus.Counter
	ImportErrors      *prometheus.CounterVec
	ImportDuration    prometheus.Histogram
	FilesImported     *prometheus.CounterVec

	TradesAppended    *prometheus.CounterVec
	DuplicatesSkipped *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradejournal"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RowsParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_parsed_total",
			Help:      "Total number of execution rows parsed",
		}),
		TradesSynthesized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "trades_synthesized_total",
			Help:      "Total number of trades reconstructed from execution rows",
		}),
		ImportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "errors_total",
			Help:      "Import errors by severity",
		}, []string{"severity"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of a single file import",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		FilesImported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Imported files by status",
		}, []string{"status"}),
		TradesAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_appended_total",
			Help:      "Trades appended to the journal",
		}, []string{"account"}),
		DuplicatesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "duplicates_skipped_total",
			Help:      "Trades skipped because the journal already had them",
		}, []string{"account"}),
	}
}

// ObserveImport records the outcome of one file import.
func (m *Metrics) ObserveImport(rows, trades, rowErrors, warnings int, fatal bool, d time.Duration) {
	if m == nil {
		return
	}
	m.ImportDuration.Observe(d.Seconds())
	if fatal {
		m.ImportErrors.WithLabelValues(SeverityFatal).Inc()
		m.FilesImported.WithLabelValues("failed").Inc()
		return
	}
	m.FilesImported.WithLabelValues("ok").Inc()
	m.RowsParsed.Add(float64(rows))
	m.TradesSynthesized.Add(float64(trades))
	m.ImportErrors.WithLabelValues(SeverityRow).Add(float64(rowErrors))
	m.ImportErrors.WithLabelValues(SeverityGroup).Add(float64(warnings))
}

// ObserveMerge records one per-account merge.
func (m *Metrics) ObserveMerge(account string, appended, skipped int) {
	if m == nil {
		return
	}
	m.TradesAppended.WithLabelValues(account).Add(float64(appended))
	m.DuplicatesSkipped.WithLabelValues(account).Add(float64(skipped))
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
