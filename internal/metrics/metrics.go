package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the refresh pipeline and the dashboard gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RefreshRuns      prometheus.Counter
	RefreshDur       prometheus.Histogram
	ProviderFailures *prometheus.CounterVec // labels: provider
	SimulatedQuotes  *prometheus.CounterVec // labels: symbol
	Analyses         *prometheus.CounterVec // labels: classification
	Score            *prometheus.GaugeVec   // labels: symbol
	ClassChanges     prometheus.Counter
	WSClients        prometheus.Gauge
	NewsFetches      *prometheus.CounterVec // labels: source, result
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_refresh_runs_total",
			Help: "Total watchlist refresh runs",
		}),
		RefreshDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketpulse_refresh_duration_seconds",
			Help:    "Wall time of a full watchlist refresh",
			Buckets: prometheus.DefBuckets,
		}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_provider_failures_total",
			Help: "Quote fetch failures by provider",
		}, []string{"provider"}),
		SimulatedQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_simulated_quotes_total",
			Help: "Quotes replaced by simulated placeholders after every provider failed",
		}, []string{"symbol"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_analyses_total",
			Help: "Analyses produced by classification",
		}, []string{"classification"}),
		Score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketpulse_score",
			Help: "Latest composite score per symbol",
		}, []string{"symbol"}),
		ClassChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_classification_changes_total",
			Help: "Classification changes detected on the board",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketpulse_ws_clients",
			Help: "Connected dashboard websocket clients",
		}),
		NewsFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_news_fetches_total",
			Help: "News source attempts by source and result",
		}, []string{"source", "result"}),
	}

	reg.MustRegister(
		m.RefreshRuns,
		m.RefreshDur,
		m.ProviderFailures,
		m.SimulatedQuotes,
		m.Analyses,
		m.Score,
		m.ClassChanges,
		m.WSClients,
		m.NewsFetches,
	)
	return m
}

func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRuns.Inc()
	m.RefreshDur.Observe(d.Seconds())
}

func (m *Metrics) ProviderFailed(provider string) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) SimulatedQuote(symbol string) {
	if m == nil {
		return
	}
	m.SimulatedQuotes.WithLabelValues(symbol).Inc()
}

func (m *Metrics) AnalysisProduced(symbol, classification string, score int) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(classification).Inc()
	m.Score.WithLabelValues(symbol).Set(float64(score))
}

func (m *Metrics) ClassificationChanged() {
	if m == nil {
		return
	}
	m.ClassChanges.Inc()
}

func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

func (m *Metrics) NewsFetched(source string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.NewsFetches.WithLabelValues(source, result).Inc()
}
