package qa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/ennchan-rag/pkg/retrieval"
)

// retrieve ranks stored documents for the question with the fixed strategy,
// or with the one the model selects.
func (p *Pipeline) retrieve(ctx context.Context, log *slog.Logger, s State) (State, error) {
	strategy := p.strategy
	if strategy == nil {
		strategy, s = p.selectStrategy(ctx, log, s)
	}
	strategy = retrieval.WithLogger(strategy, log)
	s.SelectedRetrievalStrategy = strategy.Kind().String()

	log.Info("Retrieving documents", "strategy", s.SelectedRetrievalStrategy)

	docs, err := strategy.Retrieve(ctx, s.Question, p.store)
	if err != nil {
		log.Warn("Retrieval failed, answering without context", "error", err)
		s = s.recovered(StageRetrieve, fmt.Errorf("retrieve: %w", err))
		docs = nil
	}
	s.Context = docs

	log.Info("Retrieved documents", "count", len(docs))
	return s, nil
}

// generate fills the answer prompt and calls the model once. Both failures
// abort the run.
func (p *Pipeline) generate(ctx context.Context, log *slog.Logger, s State) (State, error) {
	prompt, err := p.template.Format(map[string]any{
		"question": s.Question,
		"context":  buildContext(s.Context, p.contextScope),
	})
	if err != nil {
		return s, fmt.Errorf("failed to format answer prompt: %w", err)
	}

	log.Info("Generating answer", "prompt_length", len(prompt))

	answer, err := p.llm.Invoke(ctx, prompt)
	if err != nil {
		return s, fmt.Errorf("answer generation failed: %w", err)
	}
	s.Answer = answer
	return s, nil
}
