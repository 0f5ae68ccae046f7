package loaders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

const defaultOCRURL = "https://api.mistral.ai/v1/ocr"

// ErrMissingOCRKey is returned when a PDF is loaded without an OCR key.
var ErrMissingOCRKey = errors.New("loaders: MISTRAL_API_KEY is not set")

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

// PDF extracts the pages of a remote PDF as markdown using Mistral OCR.
// Each page becomes one document.
type PDF struct {
	url string
	options
}

// NewPDF creates a loader for url. WithOCR must supply the API key.
func NewPDF(url string, opts ...Option) *PDF {
	return &PDF{url: url, options: newOptions(opts)}
}

func (p *PDF) Load(ctx context.Context) ([]schema.Document, error) {
	if p.ocrKey == "" {
		return nil, ErrMissingOCRKey
	}
	url := strings.Replace(p.url, "http://", "https://", 1)

	reqBody := map[string]any{
		"model": "mistral-ocr-latest",
		"document": map[string]string{
			"type":         "document_url",
			"document_url": url,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.ocrURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.ocrKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make OCR request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR request failed with status: %s, body: %s", resp.Status, string(body))
	}

	var ocr ocrResponse
	if err := json.Unmarshal(body, &ocr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OCR response: %w", err)
	}

	docs := make([]schema.Document, 0, len(ocr.Pages))
	for _, page := range ocr.Pages {
		if strings.TrimSpace(page.Markdown) == "" {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: page.Markdown,
			Metadata: map[string]any{
				"source": fmt.Sprintf("%s#page-%d", p.url, page.Index),
				"title":  p.url,
				"page":   page.Index,
			},
		})
	}
	return docs, nil
}
