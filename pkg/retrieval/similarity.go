package retrieval

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// Similarity ranks by embedding similarity.
type Similarity struct {
	K int
	// ScoreThreshold drops candidates scoring below it. Zero disables it.
	ScoreThreshold float64
	// Filter is passed to the store as a metadata filter.
	Filter map[string]any
	Logger *slog.Logger
}

func (Similarity) Kind() Kind { return KindSimilarity }
func (Similarity) sealed() {}

func (s Similarity) Retrieve(ctx context.Context, query string, store vectorstore.Store) ([]schema.Document, error) {
	k := kOrDefault(s.K)

	var opts []vectorstore.SearchOption
	if s.Filter != nil {
		opts = append(opts, vectorstore.WithFilter(s.Filter))
	}

	results, err := store.SimilaritySearchWithScore(ctx, query, 2*k, opts...)
	if err != nil {
		return fallback(ctx, s.Logger, s.Kind(), query, store, k, err)
	}

	docs := make([]schema.Document, 0, k)
	for _, r := range results {
		if s.ScoreThreshold > 0 && r.Score < s.ScoreThreshold {
			continue
		}
		doc := r.Document
		doc.Score = float32(r.Score)
		docs = append(docs, doc)
		if len(docs) == k {
			break
		}
	}
	return docs, nil
}
