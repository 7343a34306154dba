package news

import (
	"context"
	"log"
	"time"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

// Chain tries each source in order and returns the first non-empty list.
// When every source fails it returns the offline placeholders.
type Chain struct {
	Sources []Source
	Limit   int
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewChain creates a chain over sources.
func NewChain(limit int, m *metrics.Metrics, sources ...Source) *Chain {
	return &Chain{Sources: sources, Limit: limit, Metrics: m, Now: time.Now}
}

// Fetch returns headlines from the first working source.
func (c *Chain) Fetch(ctx context.Context) []model.NewsItem {
	for _, s := range c.Sources {
		items, err := s.Fetch(ctx, c.Limit)
		if err != nil {
			c.Metrics.NewsFetched(s.Name(), false)
			log.Printf("[WARN] news source %s failed: %v", s.Name(), err)
			continue
		}
		c.Metrics.NewsFetched(s.Name(), true)
		log.Printf("[INFO] loaded %d headlines from %s", len(items), s.Name())
		return items
	}
	log.Println("[WARN] every news source failed, using offline headlines")
	return Offline(c.Now())
}

// Offline is the placeholder list shown when no source is reachable.
func Offline(now time.Time) []model.NewsItem {
	return []model.NewsItem{
		{
			Title:       "News offline: providers unavailable",
			Summary:     "News providers are temporarily unavailable. Quotes keep refreshing normally.",
			Source:      "System",
			PublishedAt: now,
			Impact:      model.ImpactNeutral,
			Offline:     true,
		},
	}
}
