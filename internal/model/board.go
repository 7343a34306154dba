package model

import "time"

// BoardEntry is the latest analysis held for one watchlist symbol.
type BoardEntry struct {
	Instrument              Instrument      `json:"instrument"`
	Quote                   Quote           `json:"quote"`
	Source                  string          `json:"source"`
	Simulated               bool            `json:"simulated"`
	FetchedAt               time.Time       `json:"fetched_at"`
	Analysis                *AnalysisResult `json:"analysis"`
	RecentScores            []int           `json:"recent_scores"`
	PreviousClassification  Classification  `json:"previous_classification,omitempty"`
	ClassificationChangedAt time.Time       `json:"classification_changed_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// BoardState is the persisted form of the board.
type BoardState struct {
	Entries   map[string]*BoardEntry `json:"entries"`
	Order     []string               `json:"order"`
	UpdatedAt time.Time              `json:"updated_at"`
}
