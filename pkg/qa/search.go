package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

// SourceWebSearch and SourceCompiledReference tag documents the pipeline
// writes into the store.
const (
	SourceWebSearch         = "web_search"
	SourceCompiledReference = "compiled_reference"
)

// searchWeb runs every query, keeps the first hit per URL and indexes the
// hits that carry content.
func (p *Pipeline) searchWeb(ctx context.Context, log *slog.Logger, s State) (State, error) {
	seen := make(map[string]struct{})
	var (
		hits []websearch.Hit
		docs []schema.Document
	)

	for _, query := range s.SearchQueries {
		log.Info("Searching the web", "query", query)

		results, err := p.searcher.Search(ctx, query)
		if err != nil {
			log.Warn("Web search failed", "query", query, "error", err)
			s = s.recovered(StageSearchWeb, fmt.Errorf("search %q: %w", query, err))
			continue
		}

		for _, hit := range results {
			if _, dup := seen[hit.URL]; dup {
				continue
			}
			seen[hit.URL] = struct{}{}
			hits = append(hits, hit)

			if strings.TrimSpace(hit.Content) == "" {
				continue
			}
			docs = append(docs, schema.Document{
				PageContent: hit.Content,
				Metadata: map[string]any{
					"source": SourceWebSearch,
					"url":    hit.URL,
					"title":  hit.Title,
					"query":  query,
				},
			})
		}
	}

	s.RawSearchResults = hits
	s.SearchDocumentCount = 0

	if len(docs) > 0 {
		if err := p.store.AddDocuments(ctx, docs); err != nil {
			log.Warn("Failed to index search results", "documents", len(docs), "error", err)
			s = s.recovered(StageSearchWeb, fmt.Errorf("index search results: %w", err))
		} else {
			s.SearchDocumentCount = len(docs)
		}
	}

	log.Info("Web search complete", "hits", len(hits), "documents", s.SearchDocumentCount)
	return s, nil
}
