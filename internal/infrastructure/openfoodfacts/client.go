package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// Maximum number of bytes of an error body kept for logs
const maxErrorBodyBytes = 512

// ClientConfig holds Open Food Facts client settings
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Backoff           time.Duration // Wait unit between attempts, multiplied by the attempt number
}

// Client handles communication with the Open Food Facts API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxRetries  int
	backoff     time.Duration
	rateLimiter *rate.Limiter
	log         *logger.Logger
}

// NewClient creates a new Open Food Facts API client
func NewClient(cfg ClientConfig, baseLog *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "TP_BDD_Collector/1.0"
	}

	// Open Food Facts asks search clients to stay around 10 requests per minute
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Every(6 * time.Second)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		userAgent:   userAgent,
		maxRetries:  maxRetries,
		backoff:     backoff,
		rateLimiter: rate.NewLimiter(limit, 5),
		log:         baseLog.With("client", "OpenFoodFacts"),
	}
}

// searchResponse is the envelope of /cgi/search.pl
type searchResponse struct {
	Count    json.Number `json:"count"`
	Page     json.Number `json:"page"`
	PageSize json.Number `json:"page_size"`
	Products []any       `json:"products"`
}

// productResponse is the envelope of /api/v2/product/{code}
type productResponse struct {
	Code    string         `json:"code"`
	Status  int            `json:"status"`
	Product map[string]any `json:"product"`
}

// SearchProducts returns one page of raw product payloads for a category and country.
// Entries are returned untouched; callers decide what a valid product is.
func (c *Client) SearchProducts(ctx context.Context, query domain.SearchQuery) ([]any, error) {
	params := url.Values{}
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(query.PageSize))
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("tagtype_0", "categories")
	params.Set("tag_contains_0", "contains")
	params.Set("tag_0", query.Category)
	params.Set("tagtype_1", "countries")
	params.Set("tag_contains_1", "contains")
	params.Set("tag_1", query.Country)

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	c.log.Debug("search page fetched",
		"category", query.Category, "page", query.Page, "products", len(resp.Products))
	return resp.Products, nil
}

// GetProduct retrieves the raw payload of a single product by barcode
func (c *Client) GetProduct(ctx context.Context, code string) (map[string]any, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(code))

	var resp productResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, domain.ErrProductNotFound
	}
	if _, ok := resp.Product["code"]; !ok {
		resp.Product["code"] = code
	}
	return resp.Product, nil
}

// getJSON performs a GET with retries on transport errors, 429 and 5xx.
// 404 maps to ErrProductNotFound; other 4xx and undecodable bodies are not retried.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoffFor(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("request failed", "attempt", attempt, "max_attempts", c.maxRetries, "error", err)
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
			resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return domain.ErrProductNotFound
			case resp.StatusCode == http.StatusTooManyRequests:
				c.log.Warn("throttled by API", "attempt", attempt)
				lastErr = fmt.Errorf("%w: %w: status %d", domain.ErrOpenFoodFactsAPIFailure, domain.ErrRateLimited, resp.StatusCode)
				continue
			case resp.StatusCode >= 500:
				c.log.Warn("retryable API error", "attempt", attempt, "status", resp.StatusCode, "body", string(body))
				lastErr = fmt.Errorf("%w: status %d", domain.ErrOpenFoodFactsAPIFailure, resp.StatusCode)
				continue
			default:
				return fmt.Errorf("%w: status %d, body: %s", domain.ErrOpenFoodFactsAPIFailure, resp.StatusCode, string(body))
			}
		}

		decoder := json.NewDecoder(resp.Body)
		decoder.UseNumber()
		err = decoder.Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	c.log.Error("all retries failed", "url", reqURL, "error", lastErr)
	return lastErr
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOpenFoodFactsAPIFailure, err)
	}
	return resp, nil
}

// backoffFor grows linearly with the attempt number
func (c *Client) backoffFor(attempt int) time.Duration {
	return time.Duration(attempt) * c.backoff
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
