package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

const maxSummaryInputRunes = 2000

// processResults summarizes every hit with content on the worker pool and
// waits for all of them. Failed summaries are dropped.
func (p *Pipeline) processResults(ctx context.Context, log *slog.Logger, s State) (State, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []ProcessedResult
		failures []error
	)

	fail := func(hit websearch.Hit, err error) {
		log.Warn("Summarization failed", "url", hit.URL, "error", err)
		mu.Lock()
		failures = append(failures, fmt.Errorf("summarize %s: %w", hit.URL, err))
		mu.Unlock()
	}

	submitted := 0
	for _, hit := range s.RawSearchResults {
		if strings.TrimSpace(hit.Content) == "" {
			continue
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(hit, fmt.Errorf("%w: %v", ErrSummaryTaskPanic, r))
				}
			}()

			summary, err := p.summarize(ctx, s.Question, hit)
			if err != nil {
				fail(hit, err)
				return
			}

			mu.Lock()
			results = append(results, ProcessedResult{
				Title:           hit.Title,
				URL:             hit.URL,
				Summary:         summary,
				OriginalContent: hit.Content,
			})
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			fail(hit, err)
			continue
		}
		submitted++
	}

	wg.Wait()

	for _, err := range failures {
		s = s.recovered(StageProcessResults, err)
	}
	s.ProcessedResults = results

	log.Info("Summarization complete", "submitted", submitted, "succeeded", len(results), "failed", len(failures))
	return s, nil
}

func (p *Pipeline) summarize(ctx context.Context, question string, hit websearch.Hit) (string, error) {
	out, err := p.ask(ctx, prompts.Summarize, map[string]any{
		"question": question,
		"title":    hit.Title,
		"content":  truncateRunes(hit.Content, maxSummaryInputRunes),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func truncateRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
