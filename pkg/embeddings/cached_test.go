package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	queries int
	docs    int
	err     error
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.queries++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	c.docs++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func TestCached_EmbedQueryHitsCache(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)

	first, err := cached.EmbedQuery(context.Background(), "what caused ww2")
	require.NoError(t, err)
	second, err := cached.EmbedQuery(context.Background(), "what caused ww2")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.queries)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("rate limited")}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)

	_, err = cached.EmbedQuery(context.Background(), "q")
	require.Error(t, err)

	inner.err = nil
	vec, err := cached.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 2, inner.queries)
}

func TestCached_DocumentsPassThrough(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)

	_, err = cached.EmbedDocuments(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	_, err = cached.EmbedDocuments(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.docs)
}

func TestNewCached_InvalidSize(t *testing.T) {
	_, err := NewCached(&countingEmbedder{}, 0)
	assert.Error(t, err)
}
