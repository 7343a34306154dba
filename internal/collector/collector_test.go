package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketPulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJSON(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBrapiFetcher_FetchQuote(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		require.Equal(t, "/api/quote/^BVSP", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"symbol":"^BVSP","regularMarketPrice":128000,
			"regularMarketChangePercent":1.5,"regularMarketDayHigh":129500,
			"regularMarketDayLow":126500,"regularMarketVolume":15000000000}]}`))
	}))
	defer srv.Close()

	f := NewBrapiFetcher(srv.URL, "secret", srv.Client(), NewLimiter(100))
	q, err := f.FetchQuote(context.Background(), "^BVSP")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, 128000.0, q.Price)
	assert.Equal(t, 1.5, q.ChangePercent)
	assert.Equal(t, 129500.0, q.DayHigh)
	assert.Equal(t, 126500.0, q.DayLow)
	assert.Equal(t, 15e9, q.Volume)
}

func TestBrapiFetcher_MissingChangeIsNaN(t *testing.T) {
	srv := serveJSON(t, "/api/quote/PETR4", `{"results":[{"symbol":"PETR4","regularMarketPrice":38.5}]}`)
	q, err := NewBrapiFetcher(srv.URL, "", srv.Client(), nil).FetchQuote(context.Background(), "PETR4")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(q.ChangePercent))
}

func TestBrapiFetcher_Errors(t *testing.T) {
	empty := serveJSON(t, "/api/quote/XXXX3", `{"results":[]}`)
	_, err := NewBrapiFetcher(empty.URL, "", empty.Client(), nil).FetchQuote(context.Background(), "XXXX3")
	assert.ErrorIs(t, err, ErrNoQuote)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	_, err = NewBrapiFetcher(down.URL, "", down.Client(), nil).FetchQuote(context.Background(), "PETR4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestAwesomeFetcher_FetchQuote(t *testing.T) {
	srv := serveJSON(t, "/last/USD-BRL", `{"USDBRL":{"bid":"5.30","pctChange":"-3.0",
		"high":"5.40","low":"5.15","timestamp":"1700000000"}}`)
	q, err := NewAwesomeFetcher(srv.URL, srv.Client(), nil).FetchQuote(context.Background(), "USD-BRL")
	require.NoError(t, err)
	assert.Equal(t, 5.30, q.Price)
	assert.Equal(t, -3.0, q.ChangePercent)
	assert.Equal(t, 5.40, q.DayHigh)
	assert.Equal(t, 5.15, q.DayLow)
	assert.Zero(t, q.Volume)
}

func TestYahooFetcher_FetchQuote(t *testing.T) {
	srv := serveJSON(t, "/v8/finance/chart/PETR4.SA", `{"chart":{"result":[{"meta":{
		"regularMarketPrice":40,"chartPreviousClose":38,"regularMarketDayHigh":40.5,
		"regularMarketDayLow":38.2,"regularMarketVolume":5000000}}],"error":null}}`)
	q, err := NewYahooFetcher(srv.URL, srv.Client(), nil).FetchQuote(context.Background(), "PETR4")
	require.NoError(t, err)
	assert.Equal(t, 40.0, q.Price)
	assert.InDelta(t, 5.2631578, q.ChangePercent, 1e-6)
	assert.Equal(t, 5e6, q.Volume)
}

func TestYahooFetcher_Symbols(t *testing.T) {
	f := NewYahooFetcher("http://unused", nil, nil)
	assert.Equal(t, "^BVSP", f.yahooSymbol("^BVSP"))
	assert.Equal(t, "^BVSP", f.yahooSymbol("IBOV"))
	assert.Equal(t, "USDBRL=X", f.yahooSymbol("USD-BRL"))
	assert.Equal(t, "VALE3.SA", f.yahooSymbol("VALE3"))
	assert.Equal(t, "AAPL.US", f.yahooSymbol("AAPL.US"))
}

func TestCollector_FallbackChain(t *testing.T) {
	inst := model.Instrument{Symbol: "PETR4", Kind: model.KindEquity, Providers: []string{"brapi", "yahoo"}, BasePrice: 38.5}
	primary := &MockFetcher{ProviderName: "brapi", Err: errors.New("boom")}
	secondary := &MockFetcher{ProviderName: "yahoo", Quotes: map[string]model.Quote{
		"PETR4": {Price: 38.5, ChangePercent: 1, DayHigh: 39, DayLow: 38, Volume: 1e6},
	}}
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	c := NewCollector([]model.Instrument{inst}, NewSimulatedFetcher([]model.Instrument{inst}, 1), nil, primary, secondary)
	c.Now = func() time.Time { return now }

	snap, err := c.CollectOne(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", snap.Source)
	assert.False(t, snap.Simulated)
	assert.Equal(t, "PETR4", snap.Quote.Symbol)
	assert.Equal(t, now, snap.FetchedAt)
	assert.Equal(t, 1, primary.Calls())
}

func TestCollector_SimulatedFallback(t *testing.T) {
	watch := []model.Instrument{
		{Symbol: "^BVSP", Kind: model.KindIndex, Providers: []string{"brapi"}, BasePrice: 128000},
		{Symbol: "USD-BRL", Kind: model.KindFX, Providers: []string{"awesomeapi"}, BasePrice: 5.2},
	}
	failing := &MockFetcher{ProviderName: "brapi", Err: errors.New("down")}
	c := NewCollector(watch, NewSimulatedFetcher(watch, 7), nil, failing)

	snaps := c.Collect(context.Background())
	require.Len(t, snaps, 2)
	for _, s := range snaps {
		assert.True(t, s.Simulated, s.Instrument.Symbol)
		assert.Equal(t, "simulated", s.Source)
		assert.LessOrEqual(t, s.Quote.DayLow, s.Quote.Price)
		assert.GreaterOrEqual(t, s.Quote.DayHigh, s.Quote.Price)
		assert.False(t, math.IsNaN(s.Quote.ChangePercent))
	}
	assert.InDelta(t, 128000, snaps[0].Quote.Price, 128000*0.016)
	assert.InDelta(t, 0, snaps[1].Quote.ChangePercent, 1.0)
}

func TestCollector_NoFallbackReturnsError(t *testing.T) {
	inst := model.Instrument{Symbol: "PETR4", Providers: []string{"brapi"}}
	c := NewCollector([]model.Instrument{inst}, nil, nil, &MockFetcher{ProviderName: "brapi", Err: errors.New("down")})
	_, err := c.CollectOne(context.Background(), inst)
	assert.Error(t, err)
	assert.Empty(t, c.Collect(context.Background()))
}

func TestNormalizeQuote_EstimatesMissingRange(t *testing.T) {
	q := normalizeQuote(model.Quote{Price: 100, ChangePercent: -2})
	assert.Equal(t, 102.0, q.DayHigh)
	assert.Equal(t, 98.0, q.DayLow)

	kept := normalizeQuote(model.Quote{Price: 100, ChangePercent: 1, DayHigh: 105, DayLow: 95})
	assert.Equal(t, 105.0, kept.DayHigh)
}
