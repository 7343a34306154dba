package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier posts to one chat through the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	// RetryBase is the first backoff step of SendWithRetry; zero means one second.
	RetryBase time.Duration
}

// NewTelegramNotifier builds a notifier for one chat. proxyURL, when set,
// routes Bot API traffic through that proxy; otherwise the environment's
// proxy settings apply.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	proxy := http.ProxyFromEnvironment
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err != nil {
			log.Printf("[WARN] Ignoring Telegram proxy %q: %v", proxyURL, err)
		} else {
			proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: &http.Transport{Proxy: proxy}},
	}
}

// Enabled reports whether a bot token and chat id are set.
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

// APIError is a Bot API call that the server refused.
type APIError struct {
	Method      string
	Status      int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.Status, e.Description)
}

// Temporary reports whether repeating the call may succeed. Client errors
// other than rate limiting will fail the same way again.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status < 400 || e.Status >= 500
}

// apiEnvelope is the wrapper every Bot API method answers with.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// call posts params as JSON to a Bot API method and decodes the result into
// out when out is non-nil.
func (t *TelegramNotifier) call(ctx context.Context, client *http.Client, method string, params, out interface{}) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(base, "/"), t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env apiEnvelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil || !env.OK || resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Method: method, Status: resp.StatusCode, Description: env.Description}
		if apiErr.Description == "" {
			apiErr.Description = strings.TrimSpace(string(raw))
		}
		if env.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (t *TelegramNotifier) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

type sendMessageParams struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	return t.SendContext(context.Background(), text)
}

// SendContext is Send bound to ctx.
func (t *TelegramNotifier) SendContext(ctx context.Context, text string) error {
	return t.call(ctx, t.httpClient(), "sendMessage", sendMessageParams{
		ChatID:                t.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}, nil)
}

// SendWithRetry makes up to maxRetries+1 attempts with exponential backoff.
// A rate-limit answer stretches the wait to what the server asked for, and a
// refused request that cannot succeed stops the attempts early.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	attempts := maxRetries + 1
	var err error
	for n := 0; n < attempts; n++ {
		if n > 0 {
			wait := t.retryDelay(n-1, err)
			log.Printf("[WARN] Telegram send attempt %d/%d failed: %v, next try in %v", n, attempts, err, wait)
			if !sleepContext(ctx, wait) {
				return ctx.Err()
			}
		}
		if err = t.SendContext(ctx, text); err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return fmt.Errorf("telegram refused message: %w", err)
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", attempts, err)
}

func (t *TelegramNotifier) retryDelay(step int, cause error) time.Duration {
	base := t.RetryBase
	if base <= 0 {
		base = time.Second
	}
	wait := base << uint(step)
	var apiErr *APIError
	if errors.As(cause, &apiErr) && apiErr.RetryAfter > wait {
		wait = apiErr.RetryAfter
	}
	return wait
}

// sleepContext waits for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
