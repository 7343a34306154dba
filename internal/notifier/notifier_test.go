package notifier

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketPulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		v    float64
		prec int32
		want string
	}{
		{128456.5, 0, "128457"},
		{5.2345, 3, "5.235"},
		{38.5, 2, "38.50"},
		{-1.005, 2, "-1.01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.v, tt.prec))
	}
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatVolume(1234567))
	assert.Equal(t, "n/a", FormatVolume(0))
}

func sampleEntry() model.BoardEntry {
	return model.BoardEntry{
		Instrument: model.Instrument{Symbol: "PETR4", Name: "Petrobras PN", Precision: 2},
		Quote:      model.Quote{Symbol: "PETR4", Price: 38.5, ChangePercent: 1.25, DayHigh: 39, DayLow: 38, Volume: 52000000},
		Analysis: &model.AnalysisResult{
			RelativeStrength: model.RelativeStrength{Value: 99, Label: model.LabelOverbought, Bias: model.BiasSell},
			Pivots:           model.PivotLevels{Pivot: 38.5, Resistance1: 39.0, Resistance2: 39.5, Support1: 38.0, Support2: 37.5},
			Score:            40,
			Classification:   model.Sell,
			Factors:          []model.FactorScore{{Name: "Relative strength", Points: -20, Commentary: "overbought"}},
			Summary:          "Score: 40/100 (Sell).",
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	msg := FormatAnalysis(sampleEntry())
	assert.Contains(t, msg, "Petrobras PN")
	assert.Contains(t, msg, "38.50 (+1.25%)")
	assert.Contains(t, msg, "52,000,000")
	assert.Contains(t, msg, "🔴 <b>Sell</b> | Score 40/100")
	assert.Contains(t, msg, "R2 39.50 | R1 39.00")
	assert.Contains(t, msg, "Relative strength: -20 (overbought)")
	assert.NotContains(t, msg, "Simulated")
}

func TestFormatAnalysisWithoutResult(t *testing.T) {
	e := sampleEntry()
	e.Analysis = nil
	e.Quote.ChangePercent = math.NaN()
	e.Simulated = true
	msg := FormatAnalysis(e)
	assert.Contains(t, msg, "Analysis unavailable")
	assert.Contains(t, msg, "(n/a)")
	assert.Contains(t, msg, "Simulated")
}

func TestFormatBoard(t *testing.T) {
	now := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)
	pending := model.BoardEntry{Instrument: model.Instrument{Symbol: "VALE3"}, Quote: model.Quote{Price: 62.3, ChangePercent: math.NaN()}, Simulated: true}
	msg := FormatBoard([]model.BoardEntry{sampleEntry(), pending}, now)

	lines := strings.Split(strings.TrimSpace(msg), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "2026-10-18 18:00")
	assert.Equal(t, "🔴 PETR4 38.50 +1.25% | 40 Sell", lines[2])
	assert.Equal(t, "⚪ VALE3 62 n/a | n/a (sim)", lines[3])

	assert.Contains(t, FormatBoard(nil, now), "No quotes yet.")
}

func TestFormatClassificationChange(t *testing.T) {
	msg := FormatClassificationChange(sampleEntry(), model.Neutral)
	assert.Contains(t, msg, "PETR4</b>: Neutral → 🔴 Sell")

	e := sampleEntry()
	e.Analysis = nil
	assert.Empty(t, FormatClassificationChange(e, model.Neutral))
}

func TestFormatNews(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	items := []model.NewsItem{
		{Title: "Lucro <recorde>", URL: "https://x", Source: "Brapi News", PublishedAt: now.Add(-2 * time.Hour), Impact: model.ImpactPositive},
		{Title: "Offline", Source: "System", Impact: model.ImpactNeutral},
	}
	msg := FormatNews(items, now)
	assert.Contains(t, msg, `▲ <a href="https://x">Lucro &lt;recorde&gt;</a>`)
	assert.Contains(t, msg, "Brapi News · 2 hours ago")
	assert.Contains(t, msg, "• Offline")
}

func TestSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send("hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "hello", got["text"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL
	tn.RetryBase = time.Millisecond
	require.NoError(t, tn.SendWithRetry(context.Background(), "x", 3))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -100)
	err := tn.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestSendWithRetryStopsOnRefusal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL
	tn.RetryBase = time.Millisecond
	err := tn.SendWithRetry(context.Background(), "x", 3)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
	assert.False(t, apiErr.Temporary())
}

func TestRetryDelayHonoursRetryAfter(t *testing.T) {
	tn := &TelegramNotifier{RetryBase: time.Millisecond}
	assert.Equal(t, 4*time.Millisecond, tn.retryDelay(2, nil))

	limited := &APIError{Status: http.StatusTooManyRequests, RetryAfter: 3 * time.Second}
	assert.True(t, limited.Temporary())
	assert.Equal(t, 3*time.Second, tn.retryDelay(0, limited))
}

func TestSendRateLimitedCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL
	var apiErr *APIError
	require.ErrorAs(t, tn.Send("x"), &apiErr)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
}

func TestPlainText(t *testing.T) {
	text := PlainText(FormatAnalysis(sampleEntry()))
	assert.NotContains(t, text, "<b>")
	assert.NotContains(t, text, "</")
	assert.Contains(t, text, "Petrobras PN (PETR4)")
	assert.Contains(t, text, "Sell | Score 40/100")
	assert.Greater(t, strings.Count(text, "\n"), 3)

	assert.Equal(t, "a < b & c", PlainText("<b>a</b> &lt; b &amp; c"))
}

func TestEnabled(t *testing.T) {
	var nilNotifier *TelegramNotifier
	assert.False(t, nilNotifier.Enabled())
	assert.False(t, NewTelegramNotifier("", "1", "").Enabled())
	assert.True(t, NewTelegramNotifier("t", "1", "").Enabled())
}

func TestStartPolling(t *testing.T) {
	var (
		mu      sync.Mutex
		polls   int
		replies = make(chan string, 1)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if first {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}}]}`))
				return
			}
			var params getUpdatesParams
			require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
			assert.Equal(t, 8, params.Offset)
			assert.Equal(t, 30, params.Timeout)
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"].(string)
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "got /help", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
