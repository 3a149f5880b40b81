package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

const (
	defaultQuery    = "cryptocurrency"
	defaultPageSize = 5
	maxPageSize     = 100
)

// Client fetches headlines from a NewsAPI compatible "everything" endpoint.
type Client struct {
	url      string
	apiKey   string
	pageSize int
	http     *resty.Client
	logger   ports.Logger
}

var _ ports.NewsClient = (*Client)(nil)

// Config holds configuration for the news client.
type Config struct {
	URL      string
	APIKey   string
	PageSize int
	Timeout  time.Duration // Defaults to 10s
	Logger   ports.Logger
}

type articleResponse struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type everythingResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []articleResponse `json:"articles"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusRequestTimeout
}

// New creates a news client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for news client")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("news API URL is required: %w", ports.ErrConfigurationError)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(isRetryableResp).
		SetHeader("Accept", "application/json")

	return &Client{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		http:     httpClient,
		logger:   cfg.Logger,
	}, nil
}

// LatestNews returns the newest articles matching query, most recent first.
// An empty query searches for "cryptocurrency"; limit <= 0 uses the configured page size.
func (c *Client) LatestNews(ctx context.Context, query string, limit int) ([]domain.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("news API key is not set: %w: %w", ports.ErrNewsUnavailable, ports.ErrConfigurationError)
	}
	if query == "" {
		query = defaultQuery
	}
	if limit <= 0 {
		limit = c.pageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var result everythingResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"pageSize": strconv.Itoa(limit),
			"sortBy":   "publishedAt",
			"apiKey":   c.apiKey,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get(c.url)
	if err != nil {
		c.logger.Error(ctx, err, "News request failed", map[string]interface{}{"query": query})
		switch {
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("fetching news: %w: %w", ports.ErrContextCanceled, err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("fetching news: %w: %w", ports.ErrTimeout, err)
		}
		return nil, fmt.Errorf("fetching news: %w: %w", ports.ErrNewsUnavailable, err)
	}

	if resp.IsError() {
		fields := map[string]interface{}{"status": resp.StatusCode(), "code": apiErr.Code, "message": apiErr.Message}
		c.logger.Warn(ctx, "News provider returned an error", fields)
		if resp.StatusCode() == http.StatusTooManyRequests {
			return nil, fmt.Errorf("news provider: %s: %w", apiErr.Message, ports.ErrRateLimited)
		}
		return nil, fmt.Errorf("news provider returned HTTP %d (%s): %w", resp.StatusCode(), apiErr.Code, ports.ErrNewsUnavailable)
	}
	if result.Status != "" && result.Status != "ok" {
		return nil, fmt.Errorf("news provider status %q: %w", result.Status, ports.ErrNewsUnavailable)
	}

	articles := make([]domain.NewsArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
		if len(articles) == limit {
			break
		}
	}
	c.logger.Debug(ctx, "Fetched news", map[string]interface{}{"query": query, "count": len(articles)})
	return articles, nil
}
