package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// DefaultCacheTTL matches how long a stats card may lag behind GitHub.
const DefaultCacheTTL = time.Hour

const cacheSize = 512

// fetchTimeout bounds one shared lookup, rate limit wait included.
const fetchTimeout = 30 * time.Second

// Stats is the subset of repository metadata shown on a project card.
type Stats struct {
	Stars        int    `json:"stars"`
	Forks        int    `json:"forks"`
	LastPushedAt string `json:"last_pushed_at"`
}

type repoResponse struct {
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	PushedAt        string `json:"pushed_at"`
}

// Client fetches repository stats with an in-memory TTL cache. Concurrent
// lookups of the same repository share one request.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	cache      *expirable.LRU[string, *Stats]
	group      singleflight.Group
	limiter    *rate.Limiter
	observe    func(source string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit bounds outgoing API requests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithObserver is called with "cache", "api" or "error" for every lookup.
func WithObserver(fn func(source string)) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient creates a stats client. An empty apiURL uses DefaultAPIURL and a
// non-positive ttl uses DefaultCacheTTL. The token is optional.
func NewClient(apiURL, token string, ttl time.Duration, opts ...Option) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      expirable.NewLRU[string, *Stats](cacheSize, nil, ttl),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) record(source string) {
	if c.observe != nil {
		c.observe(source)
	}
}

// Stats returns stats for the repository behind repoURL. It returns nil
// stats without error when the URL is not a GitHub repository or GitHub
// answers with anything but 200. Both outcomes are cached.
func (c *Client) Stats(ctx context.Context, repoURL string) (*Stats, error) {
	repo, ok := ParseRepoURL(repoURL)
	if !ok {
		return nil, nil
	}

	key := strings.ToLower(repo.String())
	if stats, ok := c.cache.Get(key); ok {
		c.record("cache")
		return stats, nil
	}

	// The shared fetch is detached from the first caller so that its
	// cancellation does not fail the other waiters.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		stats, err := c.fetch(fetchCtx, repo)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, stats)
		return stats, nil
	})

	select {
	case <-ctx.Done():
		c.record("error")
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.record("error")
			return nil, res.Err
		}
		c.record("api")
		return res.Val.(*Stats), nil
	}
}

func (c *Client) fetch(ctx context.Context, repo Repo) (*Stats, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("github rate limit: %w", err)
	}

	endpoint := c.apiURL + "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 404 or rate limited
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		slog.Warn("github stats unavailable", "repo", repo.String(), "status", resp.StatusCode)
		return nil, nil
	}

	var data repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &Stats{
		Stars:        data.StargazersCount,
		Forks:        data.ForksCount,
		LastPushedAt: data.PushedAt,
	}, nil
}
