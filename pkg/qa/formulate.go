package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
)

const (
	maxSearchQueries   = 3
	minSearchQueryRune = 6
)

// formulateQuery classifies the question and derives up to three search
// queries from it.
func (p *Pipeline) formulateQuery(ctx context.Context, log *slog.Logger, s State) (State, error) {
	log.Info("Classifying question")

	label, err := p.ask(ctx, prompts.Classify, map[string]any{"question": s.Question})
	if err != nil {
		log.Warn("Question classification failed", "error", err)
		s = s.recovered(StageFormulateQuery, fmt.Errorf("classification: %w", err))
		label = ""
	}
	s.QuestionType = QuestionType(strings.TrimSpace(label))

	raw, err := p.ask(ctx, prompts.GenerateQueries, map[string]any{
		"question":      s.Question,
		"question_type": string(s.QuestionType),
	})
	if err != nil {
		log.Warn("Query generation failed, searching for the question itself", "error", err)
		s = s.recovered(StageFormulateQuery, fmt.Errorf("query generation: %w", err))
		s.SearchQueries = []string{s.Question}
		return s, nil
	}

	queries, err := parseQueries(raw, s.Question)
	if err != nil {
		log.Warn("Could not use generated queries, searching for the question itself", "error", err, "output", raw)
		s = s.recovered(StageFormulateQuery, err)
	}
	s.SearchQueries = queries

	log.Info("Generated queries", "question_type", string(s.QuestionType), "queries", s.SearchQueries)
	return s, nil
}

// parseQueries reads the model's JSON array of queries. The outermost
// [...] span is parsed; output without brackets is wrapped in them first.
// It always returns at least one query, falling back to the question
// alongside a non-nil error.
func parseQueries(raw, question string) ([]string, error) {
	text := strings.TrimSpace(raw)

	start, end := strings.Index(text, "["), strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	} else {
		text = "[" + text + "]"
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return []string{question}, fmt.Errorf("%w: %v", ErrMalformedQueries, err)
	}
	items, ok := parsed.([]any)
	if !ok {
		return []string{question}, ErrMalformedQueries
	}

	candidates := make([]string, 0, len(items))
	for _, item := range items {
		if q, ok := item.(string); ok {
			candidates = append(candidates, q)
		}
	}

	queries := filterQueries(candidates, question)
	if len(queries) == 0 {
		return []string{question}, ErrNoUsableQueries
	}
	return queries, nil
}

// filterQueries drops empty queries, queries shorter than six characters
// and queries equal to the question, then keeps the first three.
func filterQueries(candidates []string, question string) []string {
	question = strings.TrimSpace(question)

	var out []string
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if q == "" || utf8.RuneCountInString(q) < minSearchQueryRune || q == question {
			continue
		}
		out = append(out, q)
		if len(out) == maxSearchQueries {
			break
		}
	}
	return out
}
