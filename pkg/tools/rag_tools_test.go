package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/app"
	"github.com/mikeboe/ennchan-rag/pkg/config"
	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

type fixedLLM string

func (f fixedLLM) Invoke(ctx context.Context, prompt string) (string, error) {
	return string(f), nil
}

// wordEmbedder scores a few topic words.
type wordEmbedder struct{}

func (wordEmbedder) vec(text string) []float32 {
	text = strings.ToLower(text)
	words := []string{"poland", "treaty", "pacific", "war"}
	v := make([]float32, len(words))
	for i, w := range words {
		v[i] = float32(strings.Count(text, w))
	}
	return v
}

func (e wordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vec(t)
	}
	return out, nil
}

func (e wordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.vec(text), nil
}

func newToolset(t *testing.T) *RagToolset {
	t.Helper()
	store, err := vectorstore.NewMemoryStore(wordEmbedder{})
	require.NoError(t, err)
	require.NoError(t, store.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "Germany invaded Poland.", Metadata: map[string]any{"source": "web_search", "url": "https://a"}},
		{PageContent: "The Treaty of Versailles.", Metadata: map[string]any{"source": "compiled_reference"}},
		{PageContent: "The Pacific war.", Metadata: map[string]any{"source": "web_search", "url": "https://c"}},
	}))

	rt := &app.Runtime{
		Config: &config.Config{RAG: config.RagConfig{ContextScope: 1000, SummaryWorkers: 2}},
		LLM:    fixedLLM("Question: x\nAnswer: Germany invaded Poland."),
		Store:  store,
		Searcher: websearch.SearcherFunc(func(ctx context.Context, query string) ([]websearch.Hit, error) {
			return nil, nil
		}),
		Prompt: prompts.Builtin(prompts.RAGPromptName),
	}
	return NewRagToolset(rt)
}

func TestAsk(t *testing.T) {
	ts := newToolset(t)

	resp, err := ts.Ask(context.Background(), AskArgs{Question: "What happened to Poland?", Direct: true})
	require.NoError(t, err)
	assert.Equal(t, "Germany invaded Poland.", resp.Answer)
	assert.Equal(t, "similarity", resp.Strategy)

	_, err = ts.Ask(context.Background(), AskArgs{Question: "  "})
	assert.Error(t, err)
}

func TestSearchContent(t *testing.T) {
	ts := newToolset(t)

	resp, err := ts.SearchContent(context.Background(), SearchContentArgs{Query: "poland", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "[Source]: web_search\n[Content]: Germany invaded Poland.\n[url]: https://a\n[score]: 1.0000", resp.Results)
}

func TestSearchContent_SourceFilter(t *testing.T) {
	ts := newToolset(t)

	resp, err := ts.SearchContent(context.Background(), SearchContentArgs{Query: "treaty", Source: "web_search"})
	require.NoError(t, err)
	assert.NotContains(t, resp.Results, "Versailles")
	assert.Equal(t, 2, strings.Count(resp.Results, "[Source]: web_search"))
}

func TestFindContentByMetadata(t *testing.T) {
	ts := newToolset(t)

	resp, err := ts.FindContentByMetadata(context.Background(), FindMetadataArgs{
		Filter: map[string]any{"$not": map[string]any{"source": "web_search"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "[Source]: compiled_reference\n[Content]: The Treaty of Versailles.", resp.Content)

	_, err = ts.FindContentByMetadata(context.Background(), FindMetadataArgs{
		Filter: map[string]any{"$and": "oops"},
	})
	assert.Error(t, err)
}

func TestFindContentByMetadata_JSONNumbers(t *testing.T) {
	ts := newToolset(t)
	require.NoError(t, ts.Runtime.Store.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "Chunk zero.", Metadata: map[string]any{"source": "notes.txt", "chunk": 0}},
		{PageContent: "Chunk one.", Metadata: map[string]any{"source": "notes.txt", "chunk": 1}},
	}))

	var args FindMetadataArgs
	require.NoError(t, json.Unmarshal([]byte(`{"filter": {"source": "notes.txt", "chunk": 1}}`), &args))

	resp, err := ts.FindContentByMetadata(context.Background(), args)
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "Chunk one.")
	assert.NotContains(t, resp.Content, "Chunk zero.")
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newToolset(t).NewServer("test"))
}
