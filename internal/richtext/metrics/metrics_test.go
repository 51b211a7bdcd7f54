package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransaction("insert_text", nil)
		m.ObserveImport(ImportHTML)
		m.LinkDetected()
		m.ObserveDeferred(ResultSkipped)
	})
	assert.NoError(t, m.Register(prometheus.NewRegistry()))
}

func TestCounters(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.ObserveTransaction("toggle_mark", nil)
	m.ObserveTransaction("toggle_mark", nil)
	m.ObserveTransaction("toggle_mark", errors.New("boom"))
	m.ObserveImport(ImportFallback)
	m.LinkDetected()
	m.ObserveDeferred(ResultOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("toggle_mark", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("toggle_mark", ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues(ImportFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.links))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deferred.WithLabelValues(ResultOK)))

	assert.Error(t, m.Register(reg), "double registration must fail")

	var sb strings.Builder
	require.NoError(t, WriteText(&sb, reg))
	assert.Contains(t, sb.String(), `richtext_links_detected_total 1`)
	assert.Contains(t, sb.String(), `richtext_transactions_total{action="toggle_mark",result="failed"} 1`)
	assert.Contains(t, sb.String(), "# HELP richtext_links_detected_total Links created by auto detection\n")
	assert.Contains(t, sb.String(), "# TYPE richtext_transactions_total counter\n")
}
