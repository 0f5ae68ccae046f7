package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	opts options
}

func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	return &DuckDuckGo{opts: applyOptions(duckDuckGoBaseURL, opts)}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.opts.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.opts.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	return parseDuckDuckGo(io.LimitReader(resp.Body, maxBodySize), d.opts.count)
}

// parseDuckDuckGo extracts up to limit hits from a results page. Results live
// in divs whose class contains both "result" and "results_links".
func parseDuckDuckGo(r io.Reader, limit int) ([]Hit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var hits []Hit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attr(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if hit := extractDuckDuckGoHit(n); hit.URL != "" && hit.Title != "" {
					hits = append(hits, hit)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hits, nil
}

func extractDuckDuckGoHit(n *html.Node) Hit {
	var hit Hit

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				hit.URL = unwrapRedirect(attr(n, "href"))
				hit.Title = textContent(n)
			case strings.Contains(class, "result__snippet"):
				hit.Content = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return hit
}

// unwrapRedirect turns //duckduckgo.com/l/?uddg=<target>&... into <target>.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil || !strings.HasSuffix(u.Host, "duckduckgo.com") || u.Path != "/l/" {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
