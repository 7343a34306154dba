package collector

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"MarketPulse/internal/model"

	"golang.org/x/time/rate"
)

// BrapiFetcher implements Fetcher using the brapi.dev quote API (B3 index and equities).
type BrapiFetcher struct {
	httpSource
	BaseURL string
	Token   string
}

// NewBrapiFetcher creates a brapi fetcher sharing the given client and limiter.
func NewBrapiFetcher(baseURL, token string, client *http.Client, limiter *rate.Limiter) *BrapiFetcher {
	return &BrapiFetcher{
		httpSource: httpSource{Client: client, Limiter: limiter},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
	}
}

func (f *BrapiFetcher) Name() string { return "brapi" }

// brapiQuote is the subset of a brapi result used here. Pointers distinguish
// missing fields from zeros.
type brapiQuote struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        *float64 `json:"regularMarketVolume"`
}

type brapiResponse struct {
	Results []brapiQuote `json:"results"`
	Error   bool         `json:"error"`
	Message string       `json:"message"`
}

func (f *BrapiFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")
	if f.Token != "" {
		q.Set("token", f.Token)
	}
	endpoint := fmt.Sprintf("%s/api/quote/%s?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

	var resp brapiResponse
	if err := f.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("brapi %s: %w", symbol, err)
	}
	if resp.Error {
		return nil, fmt.Errorf("brapi %s: api error: %s", symbol, resp.Message)
	}
	if len(resp.Results) == 0 || resp.Results[0].RegularMarketPrice == nil {
		return nil, fmt.Errorf("brapi %s: %w", symbol, ErrNoQuote)
	}

	r := resp.Results[0]
	return &model.Quote{
		Symbol:        symbol,
		Price:         *r.RegularMarketPrice,
		ChangePercent: valueOr(r.RegularMarketChangePercent, math.NaN()),
		DayHigh:       valueOr(r.RegularMarketDayHigh, 0),
		DayLow:        valueOr(r.RegularMarketDayLow, 0),
		Volume:        valueOr(r.RegularMarketVolume, 0),
	}, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
