package qa

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

const (
	kindClassify  = "classify"
	kindQueries   = "queries"
	kindSummarize = "summarize"
	kindReference = "reference"
	kindStrategy  = "strategy"
	kindAnswer    = "answer"
)

func promptKind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Classify the following question"):
		return kindClassify
	case strings.HasPrefix(prompt, "Your task is to convert"):
		return kindQueries
	case strings.HasPrefix(prompt, "Summarize the following content"):
		return kindSummarize
	case strings.HasPrefix(prompt, "Using the following source summaries"):
		return kindReference
	case strings.HasPrefix(prompt, "Choose the best document retrieval strategy"):
		return kindStrategy
	default:
		return kindAnswer
	}
}

// scriptedLLM answers each kind of prompt with a canned reply or error.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]func(prompt string) (string, error)
	prompts map[string][]string
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{
		replies: map[string]func(string) (string, error){
			kindClassify:  reply("FACTUAL"),
			kindQueries:   reply(`["causes of world war II", "treaty of versailles impact"]`),
			kindSummarize: reply("A short summary."),
			kindReference: reply("Germany invaded Poland [Source 1]."),
			kindStrategy:  reply("1"),
			kindAnswer:    reply("Answer: Aggression and appeasement."),
		},
		prompts: make(map[string][]string),
	}
}

func reply(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

func fail(err error) func(string) (string, error) {
	return func(string) (string, error) { return "", err }
}

func (l *scriptedLLM) on(kind string, fn func(string) (string, error)) *scriptedLLM {
	l.replies[kind] = fn
	return l
}

func (l *scriptedLLM) Invoke(ctx context.Context, prompt string) (string, error) {
	kind := promptKind(prompt)

	l.mu.Lock()
	l.prompts[kind] = append(l.prompts[kind], prompt)
	fn := l.replies[kind]
	l.mu.Unlock()

	return fn(prompt)
}

func (l *scriptedLLM) calls(kind string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts[kind]...)
}

// hashEmbedder buckets words into a small vector.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	vec := make([]float32, 32)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!:;\"'()[]")))
		vec[h.Sum32()%32]++
	}
	return vec
}

func (e hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newMemoryStore(t *testing.T) *vectorstore.MemoryStore {
	t.Helper()
	store, err := vectorstore.NewMemoryStore(hashEmbedder{})
	require.NoError(t, err)
	return store
}

// failingAddStore rejects writes and otherwise behaves like the wrapped store.
type failingAddStore struct {
	vectorstore.Store
	err error
}

func (s failingAddStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	return s.err
}

// panickingStore panics on writes.
type panickingStore struct {
	vectorstore.Store
}

func (panickingStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	panic("disk on fire")
}

func staticSearcher(results map[string][]websearch.Hit) websearch.Searcher {
	return websearch.SearcherFunc(func(ctx context.Context, query string) ([]websearch.Hit, error) {
		hits, ok := results[query]
		if !ok {
			return nil, errors.New("no results configured for " + query)
		}
		return hits, nil
	})
}

func newTestPipeline(t *testing.T, llm LLM, store vectorstore.Store, searcher websearch.Searcher, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewSearchAugmented(llm, store, searcher, prompts.Builtin(prompts.RAGPromptName), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}
