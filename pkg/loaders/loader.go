// Package loaders reads documents from local files, web pages and PDFs for
// indexing.
package loaders

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/schema"
)

// Loader produces documents from one source.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

type options struct {
	class     string
	userAgent string
	ocrKey    string
	ocrURL    string
	client    *http.Client
}

// Option configures the remote loaders.
type Option func(*options)

// WithContentClass sets the CSS class whose text a Web loader keeps.
func WithContentClass(class string) Option {
	return func(o *options) { o.class = class }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithOCR enables PDF loading through the Mistral OCR API.
func WithOCR(apiKey string) Option {
	return func(o *options) { o.ocrKey = apiKey }
}

// WithOCRBaseURL overrides the OCR endpoint.
func WithOCRBaseURL(u string) Option {
	return func(o *options) { o.ocrURL = u }
}

func newOptions(opts []Option) options {
	o := options{
		class:  DefaultContentClass,
		ocrURL: defaultOCRURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromSource picks a loader for source: PDF for .pdf URLs when OCR is
// configured, Web for other http(s) URLs and TextFile for anything else.
func FromSource(source string, opts ...Option) Loader {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		o := newOptions(opts)
		if o.ocrKey != "" && strings.HasSuffix(strings.ToLower(source), ".pdf") {
			return &PDF{url: source, options: o}
		}
		return &Web{url: source, options: o}
	}
	return TextFile{Path: source}
}
