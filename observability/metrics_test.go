package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveImport(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveImport(10, 4, 2, 1, false, 5*time.Millisecond)
	m.ObserveImport(0, 0, 0, 0, true, time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.RowsParsed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TradesSynthesized))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportErrors.WithLabelValues(SeverityRow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportErrors.WithLabelValues(SeverityGroup)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportErrors.WithLabelValues(SeverityFatal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesImported.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesImported.WithLabelValues("failed")))
}

func TestObserveMerge(t *testing.T) {
	m := NewMetrics("")

	m.ObserveMerge("SIM101", 3, 2)
	m.ObserveMerge("SIM101", 0, 5)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TradesAppended.WithLabelValues("SIM101")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.DuplicatesSkipped.WithLabelValues("SIM101")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveImport(1, 1, 0, 0, false, time.Millisecond)
	m.ObserveMerge("SIM101", 1, 0)
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}
