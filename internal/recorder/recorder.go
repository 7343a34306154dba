package recorder

import (
	"time"

	"MarketPulse/internal/model"
)

// RefreshRun summarizes one pass over the watchlist.
type RefreshRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Quotes     int
	Simulated  int
	Changes    int
}

// AnalysisRecord holds one symbol's snapshot and analysis within a run.
type AnalysisRecord struct {
	RunID    string
	Snapshot model.QuoteSnapshot
	Analysis *model.AnalysisResult
}

// Recorder persists historical data for later review.
type Recorder interface {
	// RecordRun stores a run, assigning run.ID when it is empty.
	RecordRun(run *RefreshRun) error
	RecordAnalysis(rec *AnalysisRecord) error
	RecordNews(items []model.NewsItem) error
	Close() error
}
