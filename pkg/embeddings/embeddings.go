package embeddings

import (
	"context"
	"fmt"
	"strings"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mikeboe/ennchan-rag/pkg/config"
)

// Embedder is the langchaingo embedder contract; every store in this module
// embeds through it.
type Embedder = lcembeddings.Embedder

// New builds the embedder selected by cfg.EmbeddingProvider, wrapped in a
// query cache when cfg.EmbeddingCacheSize is positive.
func New(ctx context.Context, cfg *config.Config) (Embedder, error) {
	var (
		emb Embedder
		err error
	)

	switch strings.ToLower(cfg.EmbeddingProvider) {
	case "google", "":
		emb, err = NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDimension)
	case "openai":
		emb, err = newOpenAIEmbedder(cfg)
	case "ollama":
		emb, err = newOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("invalid embedding provider: %s", cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EmbeddingCacheSize > 0 {
		return NewCached(emb, cfg.EmbeddingCacheSize)
	}
	return emb, nil
}

func newOpenAIEmbedder(cfg *config.Config) (Embedder, error) {
	token := cfg.OpenAIApiKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedding client: %w", err)
	}
	return lcembeddings.NewEmbedder(client, lcembeddings.WithStripNewLines(true))
}

func newOllamaEmbedder(cfg *config.Config) (Embedder, error) {
	client, err := ollama.New(ollama.WithServerURL(cfg.OllamaURL), ollama.WithModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedding client: %w", err)
	}
	return lcembeddings.NewEmbedder(client)
}
