package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/ennchan-rag/pkg/config"
	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/qa"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

// echoLLM answers every prompt with a fixed reply and keeps the prompts.
type echoLLM struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (l *echoLLM) Invoke(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
	return l.reply, nil
}

// letterEmbedder counts letters a-z.
type letterEmbedder struct{}

func (letterEmbedder) vec(text string) []float32 {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (e letterEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vec(t)
	}
	return out, nil
}

func (e letterEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.vec(text), nil
}

func newTestRuntime(t *testing.T, llm qa.LLM) *Runtime {
	t.Helper()
	store, err := vectorstore.NewMemoryStore(letterEmbedder{})
	require.NoError(t, err)

	return &Runtime{
		Config: &config.Config{
			UserAgent: "ennchan-test",
			RAG: config.RagConfig{
				ContextScope:   1000,
				SummaryWorkers: 2,
				ChunkSize:      60,
				ChunkOverlap:   0,
			},
		},
		LLM:   llm,
		Store: store,
		Searcher: websearch.SearcherFunc(func(ctx context.Context, query string) ([]websearch.Hit, error) {
			return nil, nil
		}),
		Prompt: prompts.Builtin(prompts.RAGPromptName),
	}
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ww2.txt")
	text := "World War II began in 1939 with the invasion of Poland.\n\n" +
		"The war in Europe ended in May 1945.\n\n" +
		"The Pacific war ended in September 1945."
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSearch, m)

	m, err = ParseMode(" Direct ")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("agentic")
	assert.Error(t, err)
}

func TestCleanAnswer(t *testing.T) {
	assert.Equal(t, "Appeasement failed.", CleanAnswer("Context: ...\nAnswer: Appeasement failed."))
	assert.Equal(t, "second", CleanAnswer("Answer: first\nAnswer:  second "))
	assert.Equal(t, "No marker here.", CleanAnswer("  No marker here.\n"))
}

func TestRuntime_Ingest(t *testing.T) {
	rt := newTestRuntime(t, &echoLLM{})
	path := writeDoc(t)

	n, err := rt.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	docs, err := rt.Store.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, path+"#chunk-0", docs[0].Metadata["url"])
	assert.Equal(t, path, docs[2].Metadata["source"])
}

func TestRuntime_IngestErrors(t *testing.T) {
	rt := newTestRuntime(t, &echoLLM{})

	_, err := rt.Ingest(context.Background(), "")
	assert.Error(t, err)

	_, err = rt.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRuntime_AskDirectLoadsDocsSource(t *testing.T) {
	llm := &echoLLM{reply: "Answer: In 1939."}
	rt := newTestRuntime(t, llm)
	rt.Config.RAG.DocsSource = writeDoc(t)

	s, err := rt.Ask(context.Background(), ModeDirect, "When did World War II begin?")
	require.NoError(t, err)

	assert.Equal(t, "In 1939.", CleanAnswer(s.Answer))
	assert.NotEmpty(t, s.Context)
	assert.Equal(t, 3, rt.Store.(*vectorstore.MemoryStore).Len())

	// a second question reuses the indexed source
	_, err = rt.Ask(context.Background(), ModeDirect, "When did the war end?")
	require.NoError(t, err)
	assert.Equal(t, 3, rt.Store.(*vectorstore.MemoryStore).Len())

	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "invasion of Poland")
}

// slowEmbedder widens the window between the empty-store check and the
// write so overlapping first questions would each ingest.
type slowEmbedder struct {
	letterEmbedder
}

func (e slowEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	time.Sleep(50 * time.Millisecond)
	return e.letterEmbedder.EmbedDocuments(ctx, texts)
}

func TestRuntime_AskDirectConcurrentIngestsOnce(t *testing.T) {
	rt := newTestRuntime(t, &echoLLM{reply: "Answer: In 1939."})
	store, err := vectorstore.NewMemoryStore(slowEmbedder{})
	require.NoError(t, err)
	rt.Store = store
	rt.Config.RAG.DocsSource = writeDoc(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = rt.Ask(context.Background(), ModeDirect, "When did World War II begin?")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())
}

func TestRuntime_AskSearch(t *testing.T) {
	llm := &echoLLM{reply: "Answer: done"}
	rt := newTestRuntime(t, llm)

	s, err := rt.Ask(context.Background(), ModeSearch, "What caused World War II?")
	require.NoError(t, err)
	assert.Equal(t, "Answer: done", s.Answer)
	assert.NotEmpty(t, s.RunID)
}

func TestRuntime_PipelineUnknownMode(t *testing.T) {
	rt := newTestRuntime(t, &echoLLM{})
	_, err := rt.Pipeline(Mode("agentic"))
	assert.Error(t, err)
}
