package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

// Collector walks the watchlist and fetches a snapshot per instrument, trying
// each instrument's providers in order.
type Collector struct {
	Fetchers  map[string]Fetcher
	Fallback  Fetcher // used when every provider fails; nil disables it
	Watchlist []model.Instrument
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(watchlist []model.Instrument, fallback Fetcher, m *metrics.Metrics, fetchers ...Fetcher) *Collector {
	byName := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		byName[f.Name()] = f
	}
	return &Collector{
		Fetchers:  byName,
		Fallback:  fallback,
		Watchlist: watchlist,
		Metrics:   m,
		Now:       time.Now,
	}
}

// Collect fetches every watchlist instrument concurrently. Instruments that
// could not be fetched at all are logged and left out.
func (c *Collector) Collect(ctx context.Context) []model.QuoteSnapshot {
	results := make([]*model.QuoteSnapshot, len(c.Watchlist))
	var wg sync.WaitGroup
	for i, inst := range c.Watchlist {
		wg.Add(1)
		go func(i int, inst model.Instrument) {
			defer wg.Done()
			snap, err := c.CollectOne(ctx, inst)
			if err != nil {
				log.Printf("[ERROR] collect %s: %v", inst.Symbol, err)
				return
			}
			results[i] = &snap
		}(i, inst)
	}
	wg.Wait()

	snaps := make([]model.QuoteSnapshot, 0, len(results))
	for _, s := range results {
		if s != nil {
			snaps = append(snaps, *s)
		}
	}
	return snaps
}

// CollectOne runs the provider chain for one instrument and falls back to a
// simulated quote when every provider fails.
func (c *Collector) CollectOne(ctx context.Context, inst model.Instrument) (model.QuoteSnapshot, error) {
	var lastErr error
	for _, name := range inst.Providers {
		f, ok := c.Fetchers[name]
		if !ok {
			continue
		}
		q, err := f.FetchQuote(ctx, inst.Symbol)
		if err != nil {
			lastErr = err
			c.Metrics.ProviderFailed(name)
			log.Printf("[WARN] provider %s failed for %s: %v", name, inst.Symbol, err)
			if ctx.Err() != nil {
				return model.QuoteSnapshot{}, ctx.Err()
			}
			continue
		}
		return c.snapshot(inst, q, f.Name(), false), nil
	}

	if c.Fallback == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("no provider configured for %s", inst.Symbol)
		}
		return model.QuoteSnapshot{}, lastErr
	}
	q, err := c.Fallback.FetchQuote(ctx, inst.Symbol)
	if err != nil {
		return model.QuoteSnapshot{}, fmt.Errorf("all providers failed (last: %v), fallback: %w", lastErr, err)
	}
	c.Metrics.SimulatedQuote(inst.Symbol)
	log.Printf("[WARN] using simulated quote for %s", inst.Symbol)
	return c.snapshot(inst, q, c.Fallback.Name(), true), nil
}

func (c *Collector) snapshot(inst model.Instrument, q *model.Quote, source string, simulated bool) model.QuoteSnapshot {
	normalized := normalizeQuote(*q)
	normalized.Symbol = inst.Symbol
	return model.QuoteSnapshot{
		Instrument: inst,
		Quote:      normalized,
		Source:     source,
		Simulated:  simulated,
		FetchedAt:  c.Now(),
	}
}

// normalizeQuote fills a missing day range with an estimate derived from the
// percent change. Providers that omit high/low report them as zero.
func normalizeQuote(q model.Quote) model.Quote {
	if q.DayHigh == 0 && q.DayLow == 0 && q.Price > 0 {
		change := q.ChangePercent
		if math.IsNaN(change) {
			change = 0
		}
		q.DayHigh, q.DayLow = estimateRange(q.Price, change)
	}
	return q
}

// estimateRange spreads price by the absolute percent change on both sides.
func estimateRange(price, changePercent float64) (high, low float64) {
	spread := price * math.Abs(changePercent) / 100
	return price + spread, price - spread
}
