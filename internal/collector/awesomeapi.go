package collector

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"MarketPulse/internal/model"

	"golang.org/x/time/rate"
)

// AwesomeFetcher implements Fetcher for currency pairs using AwesomeAPI.
// Symbols use the "USD-BRL" form.
type AwesomeFetcher struct {
	httpSource
	BaseURL string
}

// NewAwesomeFetcher creates an AwesomeAPI fetcher.
func NewAwesomeFetcher(baseURL string, client *http.Client, limiter *rate.Limiter) *AwesomeFetcher {
	return &AwesomeFetcher{
		httpSource: httpSource{Client: client, Limiter: limiter},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (f *AwesomeFetcher) Name() string { return "awesomeapi" }

// awesomePair is the AwesomeAPI payload; numbers arrive as strings.
type awesomePair struct {
	Bid       string `json:"bid"`
	PctChange string `json:"pctChange"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Timestamp string `json:"timestamp"`
}

func (f *AwesomeFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/last/%s", f.BaseURL, url.PathEscape(symbol))

	var resp map[string]awesomePair
	if err := f.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("awesomeapi %s: %w", symbol, err)
	}
	pair, ok := resp[strings.ReplaceAll(symbol, "-", "")]
	if !ok || pair.Bid == "" {
		return nil, fmt.Errorf("awesomeapi %s: %w", symbol, ErrNoQuote)
	}

	price, err := strconv.ParseFloat(pair.Bid, 64)
	if err != nil {
		return nil, fmt.Errorf("awesomeapi %s: parse bid %q: %w", symbol, pair.Bid, err)
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: parseOr(pair.PctChange, math.NaN()),
		DayHigh:       parseOr(pair.High, 0),
		DayLow:        parseOr(pair.Low, 0),
	}, nil
}

func parseOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}
