package vectorstore

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/schema"
)

// ErrNoEmbedder is returned when a store is constructed without an embedder.
var ErrNoEmbedder = errors.New("vectorstore: embedder required")

// Store is the document index the answer pipeline searches and writes to.
// Documents are owned by the store once added.
type Store interface {
	// AddDocuments embeds and stores docs.
	AddDocuments(ctx context.Context, docs []schema.Document) error
	// SimilaritySearch returns up to k documents, most similar first.
	SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error)
	// SimilaritySearchWithScore is SimilaritySearch with the similarity of each hit.
	SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...SearchOption) ([]SimilaritySearchResult, error)
	// MaxMarginalRelevanceSearch reranks the fetchK most similar documents,
	// trading relevance for diversity. diversity 0 ranks by relevance only,
	// 1 by novelty only.
	MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, diversity float64, opts ...SearchOption) ([]schema.Document, error)
	// Documents returns the stored documents in insertion order, restricted
	// to those matching the filter option when one is given.
	Documents(ctx context.Context, opts ...SearchOption) ([]schema.Document, error)
}

// SimilaritySearchResult represents a search result with score
type SimilaritySearchResult struct {
	Document schema.Document
	Score    float64
}

// SearchOptions holds per-call search settings.
type SearchOptions struct {
	// Filter restricts results by metadata. Plain keys match by equality;
	// $and, $or (lists of filters) and $not (a filter) combine conditions.
	Filter map[string]any
}

// SearchOption configures a search call.
type SearchOption func(*SearchOptions)

// WithFilter restricts a search to documents whose metadata matches filter.
func WithFilter(filter map[string]any) SearchOption {
	return func(o *SearchOptions) {
		o.Filter = filter
	}
}

func applyOptions(opts []SearchOption) SearchOptions {
	var o SearchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func documentsOf(results []SimilaritySearchResult) []schema.Document {
	docs := make([]schema.Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
		docs[i].Score = float32(r.Score)
	}
	return docs
}
