// Package websearch provides the web search backends the answer pipeline
// fans its queries out to.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mikeboe/ennchan-rag/pkg/config"
)

// Hit is a single raw web search result. URL is the deduplication key.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher runs one query against a search backend.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Hit, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string) ([]Hit, error)

func (f SearcherFunc) Search(ctx context.Context, query string) ([]Hit, error) {
	return f(ctx, query)
}

var (
	ErrMissingAPIKey = errors.New("websearch: api key required")
	ErrEmptyQuery    = errors.New("websearch: empty query")
)

const (
	defaultResultCount = 5
	defaultTimeout     = 30 * time.Second
	maxBodySize        = 1 << 20
)

// New builds the searcher selected by cfg.SearchProvider, wrapped in a
// circuit breaker when cfg.BreakerEnabled is set.
func New(cfg *config.Config, logger *slog.Logger) (Searcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := &http.Client{Timeout: defaultTimeout}

	var s Searcher
	switch strings.ToLower(cfg.SearchProvider) {
	case "brave", "":
		brave, err := NewBrave(cfg.BraveApiKey,
			WithHTTPClient(client),
			WithResultCount(cfg.SearchResultCount),
			WithUserAgent(cfg.UserAgent))
		if err != nil {
			return nil, err
		}
		s = brave
	case "duckduckgo", "ddg":
		s = NewDuckDuckGo(
			WithHTTPClient(client),
			WithResultCount(cfg.SearchResultCount),
			WithUserAgent(cfg.UserAgent))
	case "arxiv":
		s = NewArxiv(
			WithHTTPClient(client),
			WithResultCount(cfg.SearchResultCount),
			WithUserAgent(cfg.UserAgent))
	default:
		return nil, fmt.Errorf("invalid search provider: %s", cfg.SearchProvider)
	}

	if cfg.BreakerEnabled {
		s = NewBreaker(s, strings.ToLower(cfg.SearchProvider), logger)
	}
	return s, nil
}

// Option configures the HTTP based searchers.
type Option func(*options)

type options struct {
	client    *http.Client
	baseURL   string
	count     int
	userAgent string
}

func defaultOptions(baseURL string) options {
	return options{
		client:    http.DefaultClient,
		baseURL:   baseURL,
		count:     defaultResultCount,
		userAgent: "ennchan-rag/1.0",
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithBaseURL points a searcher at a different endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithResultCount sets how many hits a single query asks for.
func WithResultCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.count = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

func applyOptions(baseURL string, opts []Option) options {
	o := defaultOptions(baseURL)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
