package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRefresh(250 * time.Millisecond)
	m.ProviderFailed("brapi")
	m.ProviderFailed("brapi")
	m.SimulatedQuote("PETR4")
	m.AnalysisProduced("PETR4", "Buy", 61)
	m.SetClients(3)
	m.NewsFetched("brapi", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderFailures.WithLabelValues("brapi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulatedQuotes.WithLabelValues("PETR4")))
	assert.Equal(t, 61.0, testutil.ToFloat64(m.Score.WithLabelValues("PETR4")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WSClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NewsFetches.WithLabelValues("brapi", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh(time.Second)
		m.ProviderFailed("yahoo")
		m.SimulatedQuote("X")
		m.AnalysisProduced("X", "Sell", 40)
		m.ClassificationChanged()
		m.SetClients(1)
		m.NewsFetched("rss", true)
	})
}
