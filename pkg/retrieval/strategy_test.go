package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestFromID(t *testing.T) {
	tests := []struct {
		id   int
		want Strategy
	}{
		{1, Similarity{K: 4}},
		{2, MMR{K: 4, FetchK: 20, Diversity: 0.7}},
		{3, Hybrid{K: 4, Alpha: 0.5}},
		{4, Keyword{K: 4}},
		{0, Similarity{K: 4}},
		{5, Similarity{K: 4}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromID(tt.id), "id %d", tt.id)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "similarity", FromID(1).Kind().String())
	assert.Equal(t, "mmr", FromID(2).Kind().String())
	assert.Equal(t, "hybrid", FromID(3).Kind().String())
	assert.Equal(t, "keyword", FromID(4).Kind().String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestWithLogger(t *testing.T) {
	s := WithLogger(FromID(3), nil)
	assert.Equal(t, KindHybrid, s.Kind())
	assert.Equal(t, 0.5, s.(Hybrid).Alpha)
}

func TestSimilarity_Retrieve(t *testing.T) {
	store := &rankedStore{ranking: []schema.Document{
		doc("a", "A"), doc("b", "B"), doc("c", "C"), doc("d", "D"), doc("e", "E"),
	}}
	ctx := context.Background()

	docs, err := Similarity{K: 2}.Retrieve(ctx, "q", store)
	require.NoError(t, err)
	assert.Equal(t, 4, store.lastK)
	assert.Equal(t, []string{"A", "B"}, contents(docs))
	assert.InDelta(t, 1.0, docs[0].Score, 1e-6)

	// scores are 1.0, 0.9, 0.8, 0.7, 0.6
	docs, err = Similarity{K: 4, ScoreThreshold: 0.85}.Retrieve(ctx, "q", store)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, contents(docs))

	filter := map[string]any{"source": "web_search"}
	_, err = Similarity{K: 1, Filter: filter}.Retrieve(ctx, "q", store)
	require.NoError(t, err)
	assert.Equal(t, filter, store.lastFilter)
}

func TestMMR_Retrieve(t *testing.T) {
	store := new(mockStore)
	want := []schema.Document{doc("a", "A"), doc("b", "B")}
	store.On("MaxMarginalRelevanceSearch", mock.Anything, "q", 4, 20, 0.7).Return(want, nil)

	docs, err := FromID(2).Retrieve(context.Background(), "q", store)
	require.NoError(t, err)
	assert.Equal(t, want, docs)
	store.AssertExpectations(t)
}

func TestStrategies_FallBackToSimilarity(t *testing.T) {
	baseline := []schema.Document{doc("base", "baseline")}
	cause := errors.New("index unavailable")

	for id := 1; id <= 4; id++ {
		s := FromID(id)
		t.Run(s.Kind().String(), func(t *testing.T) {
			store := new(mockStore)
			store.On("SimilaritySearchWithScore", mock.Anything, "q", 8).Return(nil, cause).Maybe()
			store.On("MaxMarginalRelevanceSearch", mock.Anything, "q", 4, 20, 0.7).Return(nil, cause).Maybe()
			store.On("Documents", mock.Anything).Return(nil, cause).Maybe()
			// Keyword inside Hybrid falls back with 2k; the semantic side
			// then asks for 2k as well.
			store.On("SimilaritySearch", mock.Anything, "q", 8).Return(nil, cause).Maybe()
			store.On("SimilaritySearch", mock.Anything, "q", 4).Return(baseline, nil)

			docs, err := s.Retrieve(context.Background(), "q", store)
			require.NoError(t, err)
			assert.Equal(t, baseline, docs)
		})
	}
}

func TestStrategies_BaselineFailure(t *testing.T) {
	cause := errors.New("index unavailable")

	for id := 1; id <= 4; id++ {
		s := FromID(id)
		t.Run(s.Kind().String(), func(t *testing.T) {
			store := new(mockStore)
			store.On("SimilaritySearchWithScore", mock.Anything, mock.Anything, mock.Anything).Return(nil, cause).Maybe()
			store.On("MaxMarginalRelevanceSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, cause).Maybe()
			store.On("Documents", mock.Anything).Return(nil, cause).Maybe()
			store.On("SimilaritySearch", mock.Anything, mock.Anything, mock.Anything).Return(nil, cause)

			_, err := s.Retrieve(context.Background(), "q", store)
			require.Error(t, err)
			assert.ErrorIs(t, err, cause)
		})
	}
}
