package model

import "time"

// Impact is the keyword-derived sentiment of a headline.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// NewsItem is one market headline.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Impact      Impact    `json:"impact"`
	Offline     bool      `json:"offline"`
}
