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

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	httpSource
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	// Suffix is appended to plain equity tickers, ".SA" for B3.
	Suffix string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL string, client *http.Client, limiter *rate.Limiter) *YahooFetcher {
	return &YahooFetcher{
		httpSource: httpSource{Client: client, Limiter: limiter},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SymbolMap: map[string]string{
			"IBOV": "^BVSP",
		},
		Suffix: ".SA",
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	switch {
	case strings.HasPrefix(symbol, "^"), strings.Contains(symbol, "."), strings.HasSuffix(symbol, "=X"):
		return symbol
	case len(symbol) == 7 && symbol[3] == '-':
		return strings.Replace(symbol, "-", "", 1) + "=X"
	default:
		return symbol + f.Suffix
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice   interface{} `json:"regularMarketPrice"`
				ChartPreviousClose   interface{} `json:"chartPreviousClose"`
				RegularMarketDayHigh interface{} `json:"regularMarketDayHigh"`
				RegularMarketDayLow  interface{} `json:"regularMarketDayLow"`
				RegularMarketVolume  interface{} `json:"regularMarketVolume"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)))

	var chart yahooChart
	if err := f.getJSON(ctx, endpoint, &chart); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: api error: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoQuote)
	}

	meta := chart.Chart.Result[0].Meta
	price := toFloat(meta.RegularMarketPrice)
	if price == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoQuote)
	}
	change := math.NaN()
	if prev := toFloat(meta.ChartPreviousClose); prev > 0 {
		change = (price - prev) / prev * 100
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: change,
		DayHigh:       toFloat(meta.RegularMarketDayHigh),
		DayLow:        toFloat(meta.RegularMarketDayLow),
		Volume:        toFloat(meta.RegularMarketVolume),
	}, nil
}
