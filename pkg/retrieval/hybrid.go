package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// Hybrid fuses a keyword ranking and a similarity ranking of 2k candidates
// each. Alpha weights the semantic side: 1 is semantic only, 0 keyword only.
type Hybrid struct {
	K      int
	Alpha  float64
	Logger *slog.Logger
}

func (Hybrid) Kind() Kind { return KindHybrid }
func (Hybrid) sealed() {}

func (h Hybrid) Retrieve(ctx context.Context, query string, store vectorstore.Store) ([]schema.Document, error) {
	k := kOrDefault(h.K)

	keywordDocs, err := Keyword{K: 2 * k, Logger: h.Logger}.Retrieve(ctx, query, store)
	if err != nil {
		return fallback(ctx, h.Logger, h.Kind(), query, store, k, err)
	}
	semanticDocs, err := store.SimilaritySearch(ctx, query, 2*k)
	if err != nil {
		return fallback(ctx, h.Logger, h.Kind(), query, store, k, err)
	}

	return fuse(semanticDocs, keywordDocs, h.Alpha, k), nil
}

type fused struct {
	doc      schema.Document
	semantic float64
	keyword  float64
	combined float64
}

// fuse merges the two rankings. Each list scores its documents 1 - rank/len;
// a document absent from a list scores 0 there. Results are ordered by the
// combined score, ties keeping first-seen order with the semantic list
// walked first.
func fuse(semantic, keyword []schema.Document, alpha float64, k int) []schema.Document {
	var order []string
	entries := make(map[string]*fused)

	for i, doc := range semantic {
		id := docID(doc)
		if _, seen := entries[id]; seen {
			continue
		}
		entries[id] = &fused{doc: doc, semantic: positionScore(i, len(semantic))}
		order = append(order, id)
	}

	keywordSeen := make(map[string]struct{}, len(keyword))
	for i, doc := range keyword {
		id := docID(doc)
		if _, seen := keywordSeen[id]; seen {
			continue
		}
		keywordSeen[id] = struct{}{}

		score := positionScore(i, len(keyword))
		if e, ok := entries[id]; ok {
			e.keyword = score
			continue
		}
		entries[id] = &fused{doc: doc, keyword: score}
		order = append(order, id)
	}

	ranked := make([]*fused, len(order))
	for i, id := range order {
		e := entries[id]
		e.combined = alpha*e.semantic + (1-alpha)*e.keyword
		ranked[i] = e
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].combined > ranked[j].combined
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]schema.Document, len(ranked))
	for i, e := range ranked {
		out[i] = e.doc
		out[i].Score = float32(e.combined)
	}
	return out
}

func positionScore(rank, n int) float64 {
	if n == 0 {
		return 0
	}
	return 1 - float64(rank)/float64(n)
}

// docID aligns documents across the two rankings: the url metadata, else the
// source metadata, else the first 100 characters of content.
func docID(doc schema.Document) string {
	if url, ok := doc.Metadata["url"].(string); ok && url != "" {
		return url
	}
	if source, ok := doc.Metadata["source"].(string); ok && source != "" {
		return source
	}
	runes := []rune(doc.PageContent)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}
