// Package app assembles the answer pipeline and its dependencies from
// configuration. The CLI and the HTTP server share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/mikeboe/ennchan-rag/pkg/clients"
	"github.com/mikeboe/ennchan-rag/pkg/config"
	"github.com/mikeboe/ennchan-rag/pkg/database"
	"github.com/mikeboe/ennchan-rag/pkg/embeddings"
	"github.com/mikeboe/ennchan-rag/pkg/loaders"
	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/qa"
	"github.com/mikeboe/ennchan-rag/pkg/splitter"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

// Mode selects the pipeline variant.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeDirect Mode = "direct"
)

// ParseMode maps "" to ModeSearch and rejects unknown names.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSearch:
		return ModeSearch, nil
	case ModeDirect:
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Runtime holds the long-lived dependencies of the pipeline.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	LLM      qa.LLM
	Store    vectorstore.Store
	Searcher websearch.Searcher
	Prompt   prompts.Source

	// DB is set when the store is pgvector-backed.
	DB *database.PostgresDB

	// docs collapses concurrent first-time ingests of the docs source.
	docs singleflight.Group
}

// New connects every dependency cfg selects.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	llm, err := clients.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	embedder, err := embeddings.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	searcher, err := websearch.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web searcher: %w", err)
	}

	store, db, err := vectorstore.Open(ctx, cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	logger.Info("Runtime ready",
		"llm", cfg.LLMProvider,
		"model", cfg.ModelName,
		"search", cfg.SearchProvider,
		"store", cfg.VectorStore)

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		LLM:      llm,
		Store:    store,
		Searcher: searcher,
		Prompt:   prompts.FromConfig(cfg.RAG.PromptSource),
		DB:       db,
	}, nil
}

// Close releases the database pool, if any.
func (r *Runtime) Close() {
	if r.DB != nil {
		r.DB.Close()
	}
}

// Pipeline builds a pipeline of the given mode. opts are applied after the
// configured defaults. The caller must Release it.
func (r *Runtime) Pipeline(mode Mode, opts ...qa.Option) (*qa.Pipeline, error) {
	base := []qa.Option{
		qa.WithLogger(r.logger()),
		qa.WithSummaryWorkers(r.Config.RAG.SummaryWorkers),
		qa.WithContextScope(r.Config.RAG.ContextScope),
	}
	opts = append(base, opts...)

	switch mode {
	case ModeSearch, "":
		return qa.NewSearchAugmented(r.LLM, r.Store, r.Searcher, r.Prompt, opts...)
	case ModeDirect:
		return qa.NewDirect(r.LLM, r.Store, r.Prompt, opts...)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// Ask runs one question through a fresh pipeline. Direct mode over an empty
// in-memory store first indexes the configured document source.
func (r *Runtime) Ask(ctx context.Context, mode Mode, question string, opts ...qa.Option) (qa.State, error) {
	if mode == ModeDirect {
		if err := r.ensureDocs(ctx); err != nil {
			return qa.State{}, err
		}
	}

	p, err := r.Pipeline(mode, opts...)
	if err != nil {
		return qa.State{}, err
	}
	defer p.Release()

	return p.RunState(ctx, question)
}

// Ingest loads source, chunks it and indexes the chunks. It returns the
// number of chunks stored.
func (r *Runtime) Ingest(ctx context.Context, source string) (int, error) {
	if source == "" {
		return 0, errors.New("no document source given")
	}

	log := r.logger().With("source", source)
	log.Info("Loading documents")

	docs, err := loaders.FromSource(source,
		loaders.WithUserAgent(r.Config.UserAgent),
		loaders.WithOCR(r.Config.MistralApiKey),
	).Load(ctx)
	if err != nil {
		return 0, err
	}

	ts := splitter.NewRecursiveCharacterTextSplitter(r.Config.RAG.ChunkSize, r.Config.RAG.ChunkOverlap)
	chunks, err := ts.SplitDocuments(docs)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		log.Warn("Source produced no text")
		return 0, nil
	}

	if err := r.Store.AddDocuments(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", source, err)
	}

	log.Info("Indexed documents", "documents", len(docs), "chunks", len(chunks))
	return len(chunks), nil
}

func (r *Runtime) ensureDocs(ctx context.Context) error {
	mem, ok := r.Store.(*vectorstore.MemoryStore)
	source := r.Config.RAG.DocsSource
	if !ok || source == "" || mem.Len() > 0 {
		return nil
	}

	// Callers arriving during an ingest wait for it. The length is checked
	// again inside so a flight starting after another finished is a no-op.
	_, err, _ := r.docs.Do(source, func() (any, error) {
		if mem.Len() > 0 {
			return nil, nil
		}
		_, err := r.Ingest(ctx, source)
		return nil, err
	})
	return err
}

func (r *Runtime) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
