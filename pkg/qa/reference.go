package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
)

// compileReference asks the model for one cited synthesis of all summaries
// and indexes it so retrieval can find it in the same run.
func (p *Pipeline) compileReference(ctx context.Context, log *slog.Logger, s State) (State, error) {
	s.ReferenceDocument = ""
	if len(s.ProcessedResults) == 0 {
		log.Info("No summaries to compile")
		return s, nil
	}

	sources := make([]prompts.SourceSummary, len(s.ProcessedResults))
	for i, r := range s.ProcessedResults {
		sources[i] = prompts.SourceSummary{Title: r.Title, URL: r.URL, Summary: r.Summary}
	}

	out, err := p.ask(ctx, prompts.CompileReference, map[string]any{
		"question": s.Question,
		"sources":  prompts.FormatSources(sources),
	})
	if err != nil {
		log.Warn("Reference compilation failed", "error", err)
		return s.recovered(StageCompileReference, fmt.Errorf("compile reference: %w", err)), nil
	}

	reference := strings.TrimSpace(out)
	if reference == "" {
		log.Warn("Reference compilation returned no text")
		return s, nil
	}
	s.ReferenceDocument = reference

	doc := schema.Document{
		PageContent: reference,
		Metadata: map[string]any{
			"source": SourceCompiledReference,
			"title":  "Compiled reference",
			"query":  s.Question,
		},
	}
	if err := p.store.AddDocuments(ctx, []schema.Document{doc}); err != nil {
		log.Warn("Failed to index compiled reference", "error", err)
		s = s.recovered(StageCompileReference, fmt.Errorf("index compiled reference: %w", err))
	}

	log.Info("Compiled reference document", "sources", len(sources), "length", len(reference))
	return s, nil
}
