package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/schema"
	"golang.org/x/net/html"
)

// DefaultContentClass selects the article body of MediaWiki pages.
const DefaultContentClass = "mw-content-container"

// Web fetches a page and keeps the text of the elements carrying a CSS
// class. Pages without such an element contribute their whole body.
type Web struct {
	url string
	options
}

// NewWeb creates a loader for url.
func NewWeb(url string, opts ...Option) *Web {
	return &Web{url: url, options: newOptions(opts)}
}

func (w *Web) Load(ctx context.Context) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", w.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s failed with status %s: %s", w.url, resp.Status, string(body))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", w.url, err)
	}

	return []schema.Document{{
		PageContent: extractText(doc, w.class),
		Metadata: map[string]any{
			"source": w.url,
			"title":  pageTitle(doc),
		},
	}}, nil
}

// extractText returns the text under every element whose class list holds
// class, or the body text when none does.
func extractText(root *html.Node, class string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			parts = append(parts, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if class != "" {
		walk(root)
	}

	if len(parts) == 0 {
		if body := findElement(root, "body"); body != nil {
			return nodeText(body)
		}
		return nodeText(root)
	}
	return strings.Join(parts, "\n\n")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func pageTitle(root *html.Node) string {
	if t := findElement(root, "title"); t != nil {
		return strings.TrimSpace(nodeText(t))
	}
	return ""
}

// nodeText collects visible text, one line per text node. Script and style
// contents are skipped.
func nodeText(n *html.Node) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if line := strings.Join(strings.Fields(n.Data), " "); line != "" {
				lines = append(lines, line)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}
