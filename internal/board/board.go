package board

import (
	"log"
	"sync"
	"time"

	"MarketPulse/internal/model"
)

// maxRecentScores bounds the score history kept per symbol.
const maxRecentScores = 12

// Board holds the latest analysis per watchlist symbol with concurrency safety.
type Board struct {
	mu       sync.Mutex
	state    *model.BoardState
	filePath string
	now      func() time.Time
}

// New creates a Board, loading previous state from filePath when it is set.
// An empty filePath keeps the board in memory only. A non-empty order replaces
// the stored one, and stored entries for symbols outside it are dropped.
func New(filePath string, order []string) (*Board, error) {
	state := &model.BoardState{Entries: map[string]*model.BoardEntry{}}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	if len(order) > 0 {
		state.Order = append([]string(nil), order...)
		for symbol := range state.Entries {
			if !contains(order, symbol) {
				delete(state.Entries, symbol)
			}
		}
	}
	return &Board{state: state, filePath: filePath, now: time.Now}, nil
}

// Update stores a fresh snapshot and its analysis. It reports the previous
// classification and whether the new one differs from it. A nil analysis
// refreshes the quote but leaves the last analysis and score history alone.
func (b *Board) Update(snap model.QuoteSnapshot, analysis *model.AnalysisResult) (model.Classification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbol := snap.Instrument.Symbol
	entry, ok := b.state.Entries[symbol]
	if !ok {
		entry = &model.BoardEntry{}
		b.state.Entries[symbol] = entry
		if !contains(b.state.Order, symbol) {
			b.state.Order = append(b.state.Order, symbol)
		}
	}

	now := b.now()
	entry.Instrument = snap.Instrument
	entry.Quote = snap.Quote
	entry.Source = snap.Source
	entry.Simulated = snap.Simulated
	entry.FetchedAt = snap.FetchedAt
	entry.UpdatedAt = now

	var previous model.Classification
	changed := false
	if analysis != nil {
		if entry.Analysis != nil {
			previous = entry.Analysis.Classification
			if previous != analysis.Classification {
				changed = true
				entry.PreviousClassification = previous
				entry.ClassificationChangedAt = now
			}
		}
		entry.Analysis = analysis

		entry.RecentScores = append(entry.RecentScores, analysis.Score)
		if len(entry.RecentScores) > maxRecentScores {
			entry.RecentScores = entry.RecentScores[len(entry.RecentScores)-maxRecentScores:]
		}
	}

	if err := b.save(); err != nil {
		log.Printf("[ERROR] failed to save board state: %v", err)
	}
	return previous, changed
}

// Get returns a copy of the entry for symbol.
func (b *Board) Get(symbol string) (model.BoardEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.state.Entries[symbol]
	if !ok {
		return model.BoardEntry{}, false
	}
	return copyEntry(entry), true
}

// List returns copies of every entry in watchlist order.
func (b *Board) List() []model.BoardEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.BoardEntry, 0, len(b.state.Entries))
	for _, symbol := range b.state.Order {
		if entry, ok := b.state.Entries[symbol]; ok {
			out = append(out, copyEntry(entry))
		}
	}
	return out
}

func (b *Board) save() error {
	if b.filePath == "" {
		return nil
	}
	return SaveState(b.filePath, b.state)
}

func copyEntry(e *model.BoardEntry) model.BoardEntry {
	c := *e
	c.RecentScores = append([]int(nil), e.RecentScores...)
	return c
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
