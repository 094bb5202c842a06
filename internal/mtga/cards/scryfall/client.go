package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Scryfall API.
	DefaultBaseURL = "https://api.scryfall.com"

	defaultRateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	defaultUserAgent      = "MTGA-DeckScanner/1.0"
	initialBackoff        = 1 * time.Second
	maxBackoff            = 16 * time.Second
)

// Options configures a Client. Zero values use the defaults.
type Options struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
	// RateInterval is the minimum spacing between requests.
	RateInterval time.Duration
	// MaxRetries bounds retries on 429 and transport errors. Negative disables retries.
	MaxRetries int
	// NoTransportRetry returns transport errors after one attempt, for callers
	// that apply their own retry policy. 429s are still retried.
	NoTransportRetry bool
	InitialBackoff   time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
	baseURL        string
	maxRetries     int
	retryTransport bool
	initialBackoff time.Duration
	logger         *slog.Logger
}

// NewClient creates a new Scryfall API client with default options.
func NewClient() *Client {
	return NewClientWithOptions(Options{})
}

// NewClientWithOptions creates a Scryfall API client.
func NewClientWithOptions(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.RateInterval <= 0 {
		opts.RateInterval = defaultRateLimitDelay
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = initialBackoff
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		httpClient:     opts.HTTPClient,
		rateLimiter:    rate.NewLimiter(rate.Every(opts.RateInterval), 1),
		userAgent:      opts.UserAgent,
		baseURL:        opts.BaseURL,
		maxRetries:     opts.MaxRetries,
		retryTransport: !opts.NoTransportRetry,
		initialBackoff: opts.InitialBackoff,
		logger:         opts.Logger,
	}
}

// GetCard retrieves a card by its Scryfall ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var card Card
	if err := c.get(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	return &card, nil
}

// GetCardNamed retrieves a card by exact name via /cards/named?exact=.
func (c *Client) GetCardNamed(ctx context.Context, name string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/named?exact=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.get(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("failed to get card named '%s': %w", name, err)
	}

	return &card, nil
}

// GetCardFuzzy retrieves the closest card name match via /cards/named?fuzzy=.
// Scryfall answers 404 when the name is ambiguous or unknown.
func (c *Client) GetCardFuzzy(ctx context.Context, name string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.get(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("failed to fuzzy match card '%s': %w", name, err)
	}

	return &card, nil
}

// Autocomplete returns up to 20 card names starting with or resembling query.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/cards/autocomplete?q=%s", c.baseURL, url.QueryEscape(query))

	var catalog CatalogList
	if err := c.get(ctx, u, &catalog); err != nil {
		return nil, fmt.Errorf("failed to autocomplete '%s': %w", query, err)
	}

	return catalog.Data, nil
}

// SearchCards performs a full-text search for cards.
func (c *Client) SearchCards(ctx context.Context, query string) (*SearchResult, error) {
	u := fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result SearchResult
	if err := c.get(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("failed to search cards with query '%s': %w", query, err)
	}

	return &result, nil
}

func (c *Client) get(ctx context.Context, u string, result any) error {
	return c.do(ctx, http.MethodGet, u, nil, result)
}

// do sends one API request, waiting on the rate limiter before every attempt.
// Transport errors (unless disabled) and 429s are retried with exponential
// backoff, honoring Retry-After. body, when set, is sent as JSON.
func (c *Client) do(ctx context.Context, method, u string, body []byte, result any) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		wait := backoff
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if ctx.Err() != nil || !c.retryTransport {
				return lastErr
			}
			c.logger.Warn("Scryfall request failed", "url", u, "attempt", attempt+1, "error", err)
		} else {
			done, err := c.handleResponse(resp, u, result)
			if done {
				return err
			}
			lastErr = err
			if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
			c.logger.Warn("Scryfall rate limited", "url", u, "wait", wait)
		}

		if attempt == c.maxRetries {
			break
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return lastErr
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse decodes resp into result. done is false when the request
// should be retried.
func (c *Client) handleResponse(resp *http.Response, u string, result any) (done bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, fmt.Errorf("failed to read response body: %w", err)
		}

		if err := json.Unmarshal(body, result); err != nil {
			return true, fmt.Errorf("failed to parse JSON response: %w", err)
		}

		return true, nil

	case http.StatusTooManyRequests:
		return false, fmt.Errorf("rate limited (HTTP 429)")

	case http.StatusNotFound:
		return true, &NotFoundError{URL: u}

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			return true, &apiErr
		}

		return true, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
