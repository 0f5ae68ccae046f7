package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// RagConfig tunes the answer pipeline.
type RagConfig struct {
	DocsSource     string
	PromptSource   string
	ContextScope   int
	SummaryWorkers int
	ChunkSize      int
	ChunkOverlap   int
}

func setRagDefaults(v *viper.Viper) {
	v.SetDefault("docs_source", "https://en.wikipedia.org/wiki/World_War_II")
	v.SetDefault("prompt_source", "rlm/rag-prompt")
	v.SetDefault("context_scope", 1000)
	v.SetDefault("rag.summary_workers", 5)
	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.chunk_overlap", 200)
}

func bindRagEnv(v *viper.Viper) {
	_ = v.BindEnv("docs_source", "DOCS_SOURCE")
	_ = v.BindEnv("prompt_source", "PROMPT_SOURCE")
	_ = v.BindEnv("context_scope", "CONTEXT_SCOPE")
	_ = v.BindEnv("rag.summary_workers", "SUMMARY_WORKERS")
	_ = v.BindEnv("rag.chunk_size", "CHUNK_SIZE")
	_ = v.BindEnv("rag.chunk_overlap", "CHUNK_OVERLAP")
}

func loadRagConfig(v *viper.Viper) RagConfig {
	return RagConfig{
		DocsSource:     v.GetString("docs_source"),
		PromptSource:   v.GetString("prompt_source"),
		ContextScope:   v.GetInt("context_scope"),
		SummaryWorkers: v.GetInt("rag.summary_workers"),
		ChunkSize:      v.GetInt("rag.chunk_size"),
		ChunkOverlap:   v.GetInt("rag.chunk_overlap"),
	}
}

func (r RagConfig) validate() error {
	if r.ContextScope <= 0 {
		return fmt.Errorf("context_scope must be positive, got %d", r.ContextScope)
	}
	if r.SummaryWorkers <= 0 {
		return fmt.Errorf("summary_workers must be positive, got %d", r.SummaryWorkers)
	}
	if r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", r.ChunkOverlap, r.ChunkSize)
	}
	return nil
}
