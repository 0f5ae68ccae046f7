package retrieval

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// rankedStore answers every similarity query with the same fixed ranking.
type rankedStore struct {
	ranking []schema.Document
	all     []schema.Document

	lastK      int
	lastFilter map[string]any
}

func (s *rankedStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	s.all = append(s.all, docs...)
	return nil
}

func (s *rankedStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	s.lastK = k
	return s.top(k), nil
}

func (s *rankedStore) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...vectorstore.SearchOption) ([]vectorstore.SimilaritySearchResult, error) {
	s.lastK = k
	var o vectorstore.SearchOptions
	for _, opt := range opts {
		opt(&o)
	}
	s.lastFilter = o.Filter

	docs := s.top(k)
	out := make([]vectorstore.SimilaritySearchResult, len(docs))
	for i, d := range docs {
		out[i] = vectorstore.SimilaritySearchResult{Document: d, Score: 1 - 0.1*float64(i)}
	}
	return out, nil
}

func (s *rankedStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, diversity float64, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	s.lastK = k
	return s.top(k), nil
}

func (s *rankedStore) Documents(ctx context.Context, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	return s.all, nil
}

func (s *rankedStore) top(k int) []schema.Document {
	if k > len(s.ranking) {
		k = len(s.ranking)
	}
	return append([]schema.Document(nil), s.ranking[:k]...)
}

// mockStore is a testify mock of vectorstore.Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	return m.Called(ctx, docs).Error(0)
}

func (m *mockStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	args := m.Called(ctx, query, k)
	docs, _ := args.Get(0).([]schema.Document)
	return docs, args.Error(1)
}

func (m *mockStore) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...vectorstore.SearchOption) ([]vectorstore.SimilaritySearchResult, error) {
	args := m.Called(ctx, query, k)
	results, _ := args.Get(0).([]vectorstore.SimilaritySearchResult)
	return results, args.Error(1)
}

func (m *mockStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, diversity float64, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	args := m.Called(ctx, query, k, fetchK, diversity)
	docs, _ := args.Get(0).([]schema.Document)
	return docs, args.Error(1)
}

func (m *mockStore) Documents(ctx context.Context, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]schema.Document)
	return docs, args.Error(1)
}

func doc(url, content string) schema.Document {
	return schema.Document{PageContent: content, Metadata: map[string]any{"url": url}}
}

func contents(docs []schema.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.PageContent
	}
	return out
}
