package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const braveBaseURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search web API.
type Brave struct {
	apiKey string
	opts   options
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title         string   `json:"title"`
			URL           string   `json:"url"`
			Description   string   `json:"description"`
			ExtraSnippets []string `json:"extra_snippets"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave creates a Brave searcher. apiKey is sent as the subscription token.
func NewBrave(apiKey string, opts ...Option) (*Brave, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Brave{apiKey: apiKey, opts: applyOptions(braveBaseURL, opts)}, nil
}

func (b *Brave) Search(ctx context.Context, query string) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.opts.count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.opts.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", b.opts.userAgent)
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brave response: %w", err)
	}

	hits := make([]Hit, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		parts := []string{stripTags(r.Description)}
		for _, s := range r.ExtraSnippets {
			parts = append(parts, stripTags(s))
		}
		hits = append(hits, Hit{
			Title:   stripTags(r.Title),
			URL:     r.URL,
			Content: strings.TrimSpace(strings.Join(parts, "\n")),
		})
	}
	return hits, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags removes the inline highlighting markup search APIs put in
// snippets and decodes entities.
func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}
