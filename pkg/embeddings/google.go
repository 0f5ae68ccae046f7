package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// googleBatchSize is the number of texts sent per EmbedContent request.
const googleBatchSize = 100

// GoogleEmbedder wraps Gemini embeddings
type GoogleEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

// NewGoogleEmbedder creates a new Gemini API embedder
func NewGoogleEmbedder(ctx context.Context, model, apiKey string, dimension int) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	return &GoogleEmbedder{
		client:    client,
		model:     model,
		dimension: int32(dimension),
	}, nil
}

// EmbedQuery generates the embedding for a single query text
func (e *GoogleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments generates embeddings for multiple texts, batching requests.
func (e *GoogleEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += googleBatchSize {
		end := min(start+googleBatchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vecs...)
	}

	return result, nil
}

func (e *GoogleEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	res, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &e.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), embeddingCount(res))
	}

	out := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", i)
		}
		out[i] = emb.Values
	}
	return out, nil
}

func embeddingCount(res *genai.EmbedContentResponse) int {
	if res == nil {
		return 0
	}
	return len(res.Embeddings)
}
