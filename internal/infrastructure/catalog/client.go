// Package catalog implements the marketplace search clients behind the
// pipeline's CatalogSearcher contract. Retry policy lives here, at the client
// boundary; the pipeline itself never retries.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/shopframe/backend/internal/domain"
)

const (
	maxRetries     = 3
	defaultTimeout = 15 * time.Second
)

// ClientConfig holds configuration for one marketplace client
type ClientConfig struct {
	Marketplace string
	BaseURL     string
	AccessToken string
	RatePerSec  float64
	Timeout     time.Duration
}

// Client searches a single marketplace catalog over HTTP
type Client struct {
	httpClient  *http.Client
	marketplace string
	baseURL     string
	accessToken string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// NewClient creates a marketplace search client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ratePerSec := cfg.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 2
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		marketplace: cfg.Marketplace,
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSec), 5),
		logger:      logger.With().Str("component", "catalog").Str("marketplace", cfg.Marketplace).Logger(),
	}
}

// Configured reports whether the client has API access set up. An
// unconfigured marketplace returns empty results instead of failing requests.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.accessToken != ""
}

// Search queries the marketplace catalog. Empty results are not an error;
// exhausted retries against a failing endpoint are.
func (c *Client) Search(ctx context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	if queryText == "" {
		return nil, domain.ErrInvalidRequest
	}

	if !c.Configured() {
		c.logger.Warn().Str("query", queryText).Msg("marketplace not configured, returning no products")
		return &domain.SearchResult{Query: queryText}, nil
	}

	endpoint := fmt.Sprintf("%s/products/search", c.baseURL)
	params := url.Values{}
	params.Add("q", queryText)
	params.Add("limit", fmt.Sprintf("%d", limit))
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("query", queryText).Msg("catalog request failed")
			lastErr = err
			sleepBackoff(ctx, attempt)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Str("query", queryText).Msg("catalog API error")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSearch, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
			sleepBackoff(ctx, attempt)
			continue
		}

		var wireResp searchResponse
		if err := json.Unmarshal(body, &wireResp); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", domain.ErrSearch, err)
		}

		products := mapProducts(wireResp.Products, c.marketplace, limit)
		c.logger.Debug().Str("query", queryText).Int("count", len(products)).Msg("catalog search done")
		return &domain.SearchResult{Query: queryText, Products: products}, nil
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ShopFrame/1.0")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearch, err)
	}
	return resp, nil
}

func sleepBackoff(ctx context.Context, attempt int) {
	select {
	case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
	case <-ctx.Done():
	}
}
