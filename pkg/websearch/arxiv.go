package websearch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const arxivBaseURL = "https://export.arxiv.org/api/query"

// arxivEntry holds the fields of an Atom entry the searcher uses.
type arxivEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Link      []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []arxivEntry `xml:"entry"`
}

// Arxiv searches paper abstracts through the arXiv Atom API.
type Arxiv struct {
	opts options
}

func NewArxiv(opts ...Option) *Arxiv {
	return &Arxiv{opts: applyOptions(arxivBaseURL, opts)}
}

func (a *Arxiv) Search(ctx context.Context, query string) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Add("search_query", "all:"+query)
	params.Add("max_results", strconv.Itoa(a.opts.count))
	params.Add("start", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opts.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.userAgent)

	resp, err := a.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	hits := make([]Hit, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		hits = append(hits, Hit{
			Title:   collapseSpace(entry.Title),
			URL:     entryURL(entry),
			Content: collapseSpace(entry.Summary),
		})
	}
	return hits, nil
}

// entryURL prefers the abstract page over the PDF link.
func entryURL(e arxivEntry) string {
	var pdf string
	for _, link := range e.Link {
		switch {
		case link.Rel == "alternate":
			return link.Href
		case link.Type == "application/pdf" && pdf == "":
			pdf = link.Href
		}
	}
	if pdf != "" {
		return pdf
	}
	return strings.TrimSpace(e.ID)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
