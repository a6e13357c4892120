package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Defaults for talking to PokeAPI.
const (
	DefaultBaseURL   = "https://pokeapi.co/api/v2"
	DefaultUserAgent = "PokedexTracker/1.0"

	defaultMaxTries = 4
	defaultTimeout  = 30 * time.Second
)

// ErrNotFound is returned when PokeAPI has no such resource.
var ErrNotFound = errors.New("not found")

// StatusError is a non-200 response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Client fetches PokeAPI resources, retrying transient failures with
// exponential backoff.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	maxTries  uint
	initial   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetry sets the attempt budget and the first backoff interval.
func WithRetry(maxTries uint, initial time.Duration) ClientOption {
	return func(c *Client) {
		c.maxTries = maxTries
		c.initial = initial
	}
}

// NewClient returns a Client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: DefaultUserAgent,
		maxTries:  defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches rawURL and returns the body of a 200 response. Network errors,
// 429 and 5xx are retried; any other status fails at once.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	if c.initial > 0 {
		b.InitialInterval = c.initial
	}

	op := func() ([]byte, error) {
		return c.getOnce(ctx, rawURL)
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *Client) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("GET %s: %w", rawURL, ErrNotFound))
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, &StatusError{URL: rawURL, Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, &StatusError{URL: rawURL, Status: resp.StatusCode}
	default:
		return nil, backoff.Permanent(&StatusError{URL: rawURL, Status: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, nil
}

// SpeciesID looks up the national dex number for a species slug.
func (c *Client) SpeciesID(ctx context.Context, slug string) (int, error) {
	body, err := c.Get(ctx, c.baseURL+"/pokemon-species/"+url.PathEscape(slug))
	if err != nil {
		return 0, fmt.Errorf("species %q: %w", slug, err)
	}
	var species struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &species); err != nil {
		return 0, fmt.Errorf("species %q: decoding: %w", slug, err)
	}
	if species.ID == 0 {
		return 0, fmt.Errorf("species %q: response has no id", slug)
	}
	return species.ID, nil
}
