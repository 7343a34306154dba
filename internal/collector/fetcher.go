package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketPulse/internal/model"

	"golang.org/x/time/rate"
)

// ErrNoQuote is returned when a provider answers without data for the symbol.
var ErrNoQuote = errors.New("no quote returned")

// Fetcher defines the interface for fetching a single quote.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}

// NewHTTPClient builds the client shared by provider fetchers, with optional proxy support.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewLimiter returns a limiter allowing perSecond requests with an equal burst.
func NewLimiter(perSecond int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

// httpSource is the transport shared by every HTTP-backed provider.
type httpSource struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// getJSON waits for the limiter, performs a GET and decodes the JSON body into out.
func (s httpSource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
