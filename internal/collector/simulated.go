package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed quotes for development and testing.
type MockFetcher struct {
	ProviderName string
	Quotes       map[string]model.Quote
	Err          error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoQuote)
	}
	return &q, nil
}

// Calls reports how many times FetchQuote was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SimulatedFetcher produces placeholder quotes around configured base prices.
// It is the last link of every fallback chain.
type SimulatedFetcher struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	instruments map[string]model.Instrument
}

// NewSimulatedFetcher creates a generator for the given watchlist.
func NewSimulatedFetcher(watchlist []model.Instrument, seed int64) *SimulatedFetcher {
	bySymbol := make(map[string]model.Instrument, len(watchlist))
	for _, inst := range watchlist {
		bySymbol[inst.Symbol] = inst
	}
	return &SimulatedFetcher{rnd: rand.New(rand.NewSource(seed)), instruments: bySymbol}
}

func (s *SimulatedFetcher) Name() string { return "simulated" }

func (s *SimulatedFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	inst, ok := s.instruments[symbol]
	if !ok || inst.BasePrice <= 0 {
		return nil, fmt.Errorf("simulated %s: no base price: %w", symbol, ErrNoQuote)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxChange, volume := 2.0, 1e7+s.rnd.Float64()*4e7
	switch inst.Kind {
	case model.KindIndex:
		volume = 15e9 + s.rnd.Float64()*5e9
	case model.KindFX:
		maxChange, volume = 1.0, 0
	}

	price := inst.BasePrice * (1 + (s.rnd.Float64()*2-1)*0.015)
	change := (s.rnd.Float64()*2 - 1) * maxChange
	high, low := estimateRange(price, change)
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		DayHigh:       high,
		DayLow:        low,
		Volume:        volume,
	}, nil
}
