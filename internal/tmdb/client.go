// Package tmdb is a small client for the TMDb v3 REST API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultBaseURL           = "https://api.themoviedb.org/3"
	DefaultLanguage          = "en-US"
	DefaultRequestsPerSecond = 4.0
	DefaultMaxRetries        = 3
	DefaultRetryBase         = 500 * time.Millisecond
	DefaultTimeout           = 20 * time.Second
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	// RequestsPerSecond paces every request, retries included.
	RequestsPerSecond float64
	// MaxRetries bounds retries of 429, 5xx and network failures.
	MaxRetries uint64
	// RetryBase is the first exponential backoff delay.
	RetryBase time.Duration
	// Timeout applies to the default HTTP client.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Client calls the TMDb API with pacing and retries.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a client. It fails with ErrMissingAPIKey if no key is set.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  cfg.Logger,
	}, nil
}

// PopularPage fetches one page of /movie/popular. Pages start at 1.
func (c *Client) PopularPage(ctx context.Context, page int) (*PopularPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var out PopularPage
	if err := c.get(ctx, "/movie/popular", q, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch popular page %d: %w", page, err)
	}
	return &out, nil
}

// MovieDetails fetches /movie/{id}. A missing movie yields ErrNotFound.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), url.Values{}, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}
	return &out, nil
}

// get performs a paced GET with retries and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	q.Set("api_key", c.cfg.APIKey)
	q.Set("language", c.cfg.Language)
	endpoint := c.cfg.BaseURL + path + "?" + q.Encode()

	backoff := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(c.cfg.RetryBase))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		c.logger.Debug("tmdb request", "path", path, "attempt", attempt)

		err := c.do(ctx, endpoint, path, dst)
		if err == nil {
			return nil
		}
		if shouldRetry(err) {
			c.logger.Warn("tmdb request failed, retrying", "path", path, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, endpoint, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		// The request URL carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = c.cfg.BaseURL + path
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// shouldRetry reports whether err is a rate limit, server or network failure.
func shouldRetry(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
