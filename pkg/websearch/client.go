// Package websearch provides a rate-limited, cached client for the Jina AI
// search API. Results feed plan grounding and background lookups.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/trip-planner/internal/resilience"
)

// Client defines the web search operations used by the planner.
type Client interface {
	// Search performs a web search and returns up to maxResults results.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Result is a single search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"description"`
}

// searchResponse is the parsed Jina Search API response.
type searchResponse struct {
	Code int `json:"code"`
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Content     string `json:"content"`
		Description string `json:"description"`
	} `json:"data"`
}

// Option configures the search client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithCacheTTL sets how long query results are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *httpClient) {
		c.cache = gocache.New(ttl, 2*ttl)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

// NewClient creates a new search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		cache:   gocache.New(30*time.Minute, time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchReply carries the raw API response through the retry loop.
type searchReply struct {
	body   []byte
	status int
}

// retryConfig is the policy for Jina API calls: three attempts, 1s doubling
// backoff, retrying transport failures and transient statuses.
func (c *httpClient) retryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = time.Second
	cfg.JitterFraction = 0
	cfg.OnRetry = resilience.RetryLogger("jina", "search")
	return cfg
}

// doSearch performs a single request. Transient statuses come back as
// transient errors so the retry loop picks them up; other statuses are
// handed to the caller with the body.
func (c *httpClient) doSearch(ctx context.Context, req *http.Request) (searchReply, error) {
	resp, err := c.http.Do(req.Clone(ctx))
	if err != nil {
		return searchReply{}, eris.Wrap(err, "websearch: request failed")
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return searchReply{}, eris.Wrap(err, "websearch: read response body")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return searchReply{}, resilience.NewTransientError(
			eris.Errorf("websearch: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode)
	}
	return searchReply{body: body, status: resp.StatusCode}, nil
}

func (c *httpClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	cacheKey := fmt.Sprintf("%s|%d", query, maxResults)
	if c.cache != nil {
		if hit, ok := c.cache.Get(cacheKey); ok {
			return hit.([]Result), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "websearch: rate limit wait")
		}
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	reply, err := resilience.DoVal(ctx, c.retryConfig(), func(ctx context.Context) (searchReply, error) {
		return c.doSearch(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	// The API returns 422 when no results are available for the query.
	// Treat this as empty results rather than an error.
	if reply.status == http.StatusUnprocessableEntity {
		return nil, nil
	}

	if reply.status != http.StatusOK {
		return nil, eris.Errorf("websearch: unexpected status %d: %s", reply.status, string(reply.body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(reply.body, &parsed); err != nil {
		return nil, eris.Wrap(err, "websearch: unmarshal response")
	}

	results := make([]Result, 0, maxResults)
	for _, d := range parsed.Data {
		if len(results) >= maxResults {
			break
		}
		snippet := d.Description
		if snippet == "" {
			snippet = d.Content
		}
		results = append(results, Result{Title: d.Title, URL: d.URL, Snippet: snippet})
	}

	zap.L().Debug("web search",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)

	if c.cache != nil {
		c.cache.Set(cacheKey, results, gocache.DefaultExpiration)
	}

	return results, nil
}
