package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"about": {}, "like": {}, "through": {}, "over": {}, "before": {}, "after": {},
	"between": {}, "under": {}, "above": {}, "of": {}, "from": {},
}

// Keyword scans every stored document and scores it by how often the query
// keywords occur in it.
type Keyword struct {
	K      int
	Logger *slog.Logger
}

func (Keyword) Kind() Kind { return KindKeyword }
func (Keyword) sealed() {}

func (kw Keyword) Retrieve(ctx context.Context, query string, store vectorstore.Store) ([]schema.Document, error) {
	k := kOrDefault(kw.K)

	all, err := store.Documents(ctx)
	if err != nil {
		return fallback(ctx, kw.Logger, kw.Kind(), query, store, k, err)
	}
	return rankByKeywords(query, all, k), nil
}

// keywords lowercases query, turns punctuation into spaces and drops stop
// words.
func keywords(query string) []string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(query))

	var out []string
	for _, word := range strings.Fields(clean) {
		if _, stop := stopWords[word]; !stop {
			out = append(out, word)
		}
	}
	return out
}

// rankByKeywords scores each document by the summed substring occurrence
// counts of the query keywords. Documents scoring zero are dropped; equal
// scores keep enumeration order.
func rankByKeywords(query string, docs []schema.Document, k int) []schema.Document {
	terms := keywords(query)
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		doc   schema.Document
		score int
	}
	var ranked []scored
	for _, doc := range docs {
		content := strings.ToLower(doc.PageContent)
		score := 0
		for _, term := range terms {
			score += strings.Count(content, term)
		}
		if score > 0 {
			ranked = append(ranked, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]schema.Document, len(ranked))
	for i, r := range ranked {
		out[i] = r.doc
		out[i].Score = float32(r.score)
	}
	return out
}
