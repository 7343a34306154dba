package scheduler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"MarketPulse/internal/board"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	entries []model.BoardEntry
	news    [][]model.NewsItem
}

func (p *fakePublisher) PublishEntry(e model.BoardEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
}

func (p *fakePublisher) PublishNews(items []model.NewsItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.news = append(p.news, items)
}

type fakeRecorder struct {
	runs     []recorder.RefreshRun
	analyses []recorder.AnalysisRecord
	news     int
}

func (r *fakeRecorder) RecordRun(run *recorder.RefreshRun) error {
	if run.ID == "" {
		run.ID = "run-1"
	}
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeRecorder) RecordAnalysis(rec *recorder.AnalysisRecord) error {
	r.analyses = append(r.analyses, *rec)
	return nil
}

func (r *fakeRecorder) RecordNews(items []model.NewsItem) error {
	r.news += len(items)
	return nil
}

func (r *fakeRecorder) Close() error { return nil }

type fakeNews struct {
	items []model.NewsItem
	calls int
}

func (f *fakeNews) Fetch(ctx context.Context) []model.NewsItem {
	f.calls++
	return f.items
}

type telegramSink struct {
	mu   sync.Mutex
	msgs []string
}

func (s *telegramSink) handler(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	s.msgs = append(s.msgs, body["text"].(string))
	s.mu.Unlock()
	w.Write([]byte(`{"ok":true}`))
}

func (s *telegramSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

type fixture struct {
	sched *Scheduler
	mock  *collector.MockFetcher
	pub   *fakePublisher
	rec   *fakeRecorder
	sink  *telegramSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	watchlist := []model.Instrument{
		{Symbol: "PETR4", Name: "Petrobras PN", Kind: model.KindEquity, Precision: 2, Providers: []string{"mock"}},
	}
	mock := &collector.MockFetcher{
		ProviderName: "mock",
		Quotes: map[string]model.Quote{
			"PETR4": {Price: 10, ChangePercent: -3, DayHigh: 11, DayLow: 9, Volume: 1000},
		},
	}
	col := collector.NewCollector(watchlist, nil, nil, mock)
	b, err := board.New("", []string{"PETR4"})
	require.NoError(t, err)

	sink := &telegramSink{}
	srv := httptest.NewServer(http.HandlerFunc(sink.handler))
	t.Cleanup(srv.Close)
	tn := notifier.NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL

	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	s := NewScheduler(context.Background(), col, b, tn, rec)
	s.Publisher = pub
	return &fixture{sched: s, mock: mock, pub: pub, rec: rec, sink: sink}
}

func TestRefreshUpdatesBoardAndAlertsOnChange(t *testing.T) {
	f := newFixture(t)

	run := f.sched.RunRefreshNow()
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Quotes)
	assert.Equal(t, 0, run.Changes)

	e, ok := f.sched.Board.Get("PETR4")
	require.True(t, ok)
	require.NotNil(t, e.Analysis)
	assert.Equal(t, 50, e.Analysis.Score)
	assert.Equal(t, model.Neutral, e.Analysis.Classification)
	assert.Empty(t, f.sink.messages())

	f.mock.Quotes["PETR4"] = model.Quote{Price: 10, ChangePercent: 1.5, DayHigh: 10.1, DayLow: 9.9}
	run = f.sched.RunRefreshNow()
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Changes)

	msgs := f.sink.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Neutral → 🔴 Sell")

	assert.Len(t, f.pub.entries, 2)
	require.Len(t, f.rec.runs, 2)
	require.Len(t, f.rec.analyses, 2)
	assert.Equal(t, "run-1", f.rec.analyses[1].RunID)
	assert.Equal(t, model.Sell, f.rec.analyses[1].Analysis.Classification)
}

func TestRefreshSkipsAnalysisWithoutChange(t *testing.T) {
	f := newFixture(t)
	f.mock.Quotes["PETR4"] = model.Quote{Price: 10, ChangePercent: math.NaN()}

	run := f.sched.RunRefreshNow()
	require.NotNil(t, run)
	e, ok := f.sched.Board.Get("PETR4")
	require.True(t, ok)
	assert.Nil(t, e.Analysis)
	assert.Nil(t, f.rec.analyses[0].Analysis)
}

func TestSimulatedChangeDoesNotAlert(t *testing.T) {
	f := newFixture(t)
	f.sched.RunRefreshNow()

	f.mock.Err = collector.ErrNoQuote
	f.sched.Collector.Fallback = &collector.MockFetcher{
		ProviderName: "simulated",
		Quotes: map[string]model.Quote{
			"PETR4": {Price: 10, ChangePercent: 1.5, DayHigh: 10.1, DayLow: 9.9},
		},
	}
	run := f.sched.RunRefreshNow()
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Simulated)
	assert.Equal(t, 1, run.Changes)
	assert.Empty(t, f.sink.messages())
}

func TestNewsTaskCachesAndPublishes(t *testing.T) {
	f := newFixture(t)
	src := &fakeNews{items: []model.NewsItem{{Title: "Ibovespa em alta", Source: "Brapi News"}}}
	f.sched.News = src

	items := f.sched.RunNewsNow()
	require.Len(t, items, 1)
	assert.Equal(t, 1, f.rec.news)
	require.Len(t, f.pub.news, 1)

	items[0].Title = "mutated"
	assert.Equal(t, "Ibovespa em alta", f.sched.LatestNews()[0].Title)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t)
	src := &fakeNews{items: []model.NewsItem{{Title: "Headline", Source: "S"}}}
	f.sched.News = src
	f.sched.RunRefreshNow()

	assert.Contains(t, f.sched.HandleCommand("/board"), "PETR4 10.00 -3.00% | 50 Neutral")
	assert.Contains(t, f.sched.HandleCommand("/analyze petr4"), "Petrobras PN")
	assert.Contains(t, f.sched.HandleCommand("/analyze@pulse_bot PETR4"), "Score breakdown")
	assert.Equal(t, "Usage: /analyze SYMBOL", f.sched.HandleCommand("/analyze"))
	assert.Contains(t, f.sched.HandleCommand("/analyze XXXX"), "Unknown symbol XXXX")

	news := f.sched.HandleCommand("/news")
	assert.Contains(t, news, "Headline")
	assert.Equal(t, 1, src.calls)
	f.sched.HandleCommand("/news")
	assert.Equal(t, 1, src.calls, "cached headlines should be reused")

	assert.True(t, strings.HasPrefix(f.sched.HandleCommand("/help"), "Available commands"))
	assert.True(t, strings.HasPrefix(f.sched.HandleCommand("hello"), "Available commands"))
}

func TestDigestSkippedWithoutTelegram(t *testing.T) {
	f := newFixture(t)
	f.sched.Notifier = nil
	f.sched.RunRefreshNow()
	f.sched.digestTask()
	assert.Empty(t, f.sink.messages())
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RegisterAll("0 * * * * *", "0 */15 * * * *", "0 0 18 * * 1-5"))
	assert.Len(t, f.sched.Cron.Entries(), 2, "news task needs a news source")

	f2 := newFixture(t)
	f2.sched.News = &fakeNews{}
	require.NoError(t, f2.sched.RegisterAll("0 * * * * *", "0 */15 * * * *", "0 0 18 * * 1-5"))
	assert.Len(t, f2.sched.Cron.Entries(), 3)

	assert.Error(t, newFixture(t).sched.RegisterAll("bad", "0 * * * * *", "0 * * * * *"))
}
