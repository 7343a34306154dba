package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketPulse/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoNews is returned when a source answers with an empty list.
var ErrNoNews = errors.New("no news returned")

// Source fetches recent headlines.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]model.NewsItem, error)
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// BrapiSource reads brapi.dev market news.
type BrapiSource struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

func (s *BrapiSource) Name() string { return "brapi" }

func (s *BrapiSource) Fetch(ctx context.Context, limit int) ([]model.NewsItem, error) {
	endpoint := fmt.Sprintf("%s/api/v2/news?token=%s", strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(s.Token))
	var resp struct {
		News []struct {
			Title       string `json:"title"`
			Text        string `json:"text"`
			Summary     string `json:"summary"`
			Link        string `json:"link"`
			URL         string `json:"url"`
			Source      string `json:"source"`
			UpdatedAt   string `json:"updatedAt"`
			PublishedAt string `json:"publishedAt"`
		} `json:"news"`
	}
	if err := getJSON(ctx, s.Client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("brapi news: %w", err)
	}
	items := make([]model.NewsItem, 0, limit)
	for _, n := range resp.News {
		if len(items) == limit {
			break
		}
		items = append(items, model.NewsItem{
			Title:       n.Title,
			Summary:     firstNonEmpty(n.Text, n.Summary, "No description available"),
			URL:         firstNonEmpty(n.Link, n.URL),
			Source:      firstNonEmpty(n.Source, "Brapi News"),
			PublishedAt: parseTime(firstNonEmpty(n.UpdatedAt, n.PublishedAt)),
			Impact:      Impact(n.Title + " " + n.Text),
		})
	}
	if len(items) == 0 {
		return nil, ErrNoNews
	}
	return items, nil
}

// NewsAPISource reads business top headlines from newsapi.org.
type NewsAPISource struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Country string
}

func (s *NewsAPISource) Name() string { return "newsapi" }

func (s *NewsAPISource) Fetch(ctx context.Context, limit int) ([]model.NewsItem, error) {
	if s.APIKey == "" {
		return nil, errors.New("newsapi: api key not configured")
	}
	q := url.Values{}
	q.Set("country", firstNonEmpty(s.Country, "br"))
	q.Set("category", "business")
	q.Set("apiKey", s.APIKey)
	endpoint := fmt.Sprintf("%s/v2/top-headlines?%s", strings.TrimRight(s.BaseURL, "/"), q.Encode())

	var resp struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, s.Client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	items := make([]model.NewsItem, 0, limit)
	for _, a := range resp.Articles {
		if len(items) == limit {
			break
		}
		items = append(items, model.NewsItem{
			Title:       a.Title,
			Summary:     firstNonEmpty(a.Description, a.Content, "Read more at the link"),
			URL:         a.URL,
			Source:      firstNonEmpty(a.Source.Name, "NewsAPI"),
			PublishedAt: parseTime(a.PublishedAt),
			Impact:      Impact(a.Title + " " + a.Description),
		})
	}
	if len(items) == 0 {
		return nil, ErrNoNews
	}
	return items, nil
}

// RSSSource reads a feed converted to JSON by rss2json.
type RSSSource struct {
	Client     *http.Client
	Endpoint   string
	SourceName string
}

func (s *RSSSource) Name() string { return "rss" }

func (s *RSSSource) Fetch(ctx context.Context, limit int) ([]model.NewsItem, error) {
	var resp struct {
		Items []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Link        string `json:"link"`
			PubDate     string `json:"pubDate"`
		} `json:"items"`
	}
	if err := getJSON(ctx, s.Client, s.Endpoint, &resp); err != nil {
		return nil, fmt.Errorf("rss: %w", err)
	}
	items := make([]model.NewsItem, 0, limit)
	for _, it := range resp.Items {
		if len(items) == limit {
			break
		}
		items = append(items, model.NewsItem{
			Title:       it.Title,
			Summary:     firstNonEmpty(truncateRunes(StripHTML(it.Description), 200), "Read more at the link"),
			URL:         it.Link,
			Source:      firstNonEmpty(s.SourceName, "Valor Econômico"),
			PublishedAt: parseTime(it.PubDate),
			Impact:      Impact(it.Title + " " + it.Description),
		})
	}
	if len(items) == 0 {
		return nil, ErrNoNews
	}
	return items, nil
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", time.RFC1123Z, time.RFC1123}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
