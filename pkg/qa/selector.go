package qa

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/retrieval"
)

var strategyDigit = regexp.MustCompile(`[1-4]`)

// selectStrategy asks the model for a strategy number. Anything without a
// digit 1-4, or a failed call, selects similarity search.
func (p *Pipeline) selectStrategy(ctx context.Context, log *slog.Logger, s State) (retrieval.Strategy, State) {
	out, err := p.ask(ctx, prompts.SelectStrategy, map[string]any{
		"question":      s.Question,
		"question_type": string(s.QuestionType),
	})
	if err != nil {
		log.Warn("Strategy selection failed, using similarity search", "error", err)
		return retrieval.FromID(1), s.recovered(StageRetrieve, fmt.Errorf("select strategy: %w", err))
	}

	id, ok := parseStrategyID(out)
	if !ok {
		log.Warn("Strategy selection answer has no strategy number, using similarity search", "output", out)
		return retrieval.FromID(1), s.recovered(StageRetrieve, ErrNoStrategyAnswer)
	}
	return retrieval.FromID(id), s
}

// parseStrategyID returns the first digit 1-4 in out.
func parseStrategyID(out string) (int, bool) {
	digit := strategyDigit.FindString(out)
	if digit == "" {
		return 1, false
	}
	id, _ := strconv.Atoi(digit)
	return id, true
}
