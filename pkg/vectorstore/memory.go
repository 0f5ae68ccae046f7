package vectorstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

type memoryEntry struct {
	doc    schema.Document
	vector []float32
}

// MemoryStore keeps documents and their embeddings in process memory and
// searches them exhaustively by cosine similarity.
type MemoryStore struct {
	embedder embeddings.Embedder

	mu      sync.RWMutex
	entries []memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder embeddings.Embedder) (*MemoryStore, error) {
	if embedder == nil {
		return nil, ErrNoEmbedder
	}
	return &MemoryStore{embedder: embedder}, nil
}

func (s *MemoryStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		s.entries = append(s.entries, memoryEntry{
			doc: schema.Document{
				PageContent: doc.PageContent,
				Metadata:    maps.Clone(doc.Metadata),
			},
			vector: vectors[i],
		})
	}
	return nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error) {
	results, err := s.SimilaritySearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}
	return documentsOf(results), nil
}

func (s *MemoryStore) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...SearchOption) ([]SimilaritySearchResult, error) {
	ranked, _, err := s.rank(ctx, query, k, applyOptions(opts))
	if err != nil {
		return nil, err
	}

	results := make([]SimilaritySearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = SimilaritySearchResult{Document: r.entry.doc, Score: r.score}
	}
	return results, nil
}

func (s *MemoryStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, diversity float64, opts ...SearchOption) ([]schema.Document, error) {
	ranked, queryVec, err := s.rank(ctx, query, max(fetchK, k), applyOptions(opts))
	if err != nil {
		return nil, err
	}

	candidates := make([][]float32, len(ranked))
	for i, r := range ranked {
		candidates[i] = r.entry.vector
	}

	picked := maximalMarginalRelevance(queryVec, candidates, diversity, k)
	docs := make([]schema.Document, len(picked))
	for i, idx := range picked {
		docs[i] = ranked[idx].entry.doc
		docs[i].Score = float32(ranked[idx].score)
	}
	return docs, nil
}

func (s *MemoryStore) Documents(ctx context.Context, opts ...SearchOption) ([]schema.Document, error) {
	o := applyOptions(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]schema.Document, 0, len(s.entries))
	for _, e := range s.entries {
		ok, err := matchesFilter(e.doc.Metadata, o.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, e.doc)
		}
	}
	return docs, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

type rankedEntry struct {
	entry memoryEntry
	score float64
}

// rank scores every entry matching the filter against the query and returns
// the best k, most similar first. Equal scores keep insertion order.
func (s *MemoryStore) rank(ctx context.Context, query string, k int, o SearchOptions) ([]rankedEntry, []float32, error) {
	if k <= 0 {
		return nil, nil, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	ranked := make([]rankedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		ok, err := matchesFilter(e.doc.Metadata, o.Filter)
		if err != nil {
			s.mu.RUnlock()
			return nil, nil, err
		}
		if ok {
			ranked = append(ranked, rankedEntry{entry: e, score: cosineSimilarity(queryVec, e.vector)})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, queryVec, nil
}
