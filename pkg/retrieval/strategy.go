// Package retrieval ranks stored documents for a query. Every strategy
// degrades to a plain similarity search when its own ranking fails.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// DefaultK is the number of documents a strategy returns unless configured.
const DefaultK = 4

// Kind identifies a strategy variant.
type Kind int

const (
	KindSimilarity Kind = iota + 1
	KindMMR
	KindHybrid
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindSimilarity:
		return "similarity"
	case KindMMR:
		return "mmr"
	case KindHybrid:
		return "hybrid"
	case KindKeyword:
		return "keyword"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Strategy is one of Similarity, MMR, Hybrid or Keyword. Retrieve returns at
// most k documents, best first. An error is returned only when the baseline
// similarity search the strategy falls back to fails as well.
type Strategy interface {
	Kind() Kind
	Retrieve(ctx context.Context, query string, store vectorstore.Store) ([]schema.Document, error)

	sealed()
}

// FromID maps a selector answer to a strategy with the tuned parameters:
//
//	1 Similarity(k=4)
//	2 MMR(k=4, fetch_k=20, diversity=0.7)
//	3 Hybrid(k=4, alpha=0.5)
//	4 Keyword(k=4)
//
// Any other id yields Similarity.
func FromID(id int) Strategy {
	switch id {
	case 2:
		return MMR{K: DefaultK, FetchK: DefaultFetchK, Diversity: 0.7}
	case 3:
		return Hybrid{K: DefaultK, Alpha: 0.5}
	case 4:
		return Keyword{K: DefaultK}
	default:
		return Similarity{K: DefaultK}
	}
}

// WithLogger returns a copy of s that reports fallbacks to logger.
func WithLogger(s Strategy, logger *slog.Logger) Strategy {
	switch v := s.(type) {
	case Similarity:
		v.Logger = logger
		return v
	case MMR:
		v.Logger = logger
		return v
	case Hybrid:
		v.Logger = logger
		return v
	case Keyword:
		v.Logger = logger
		return v
	default:
		return s
	}
}

func kOrDefault(k int) int {
	if k <= 0 {
		return DefaultK
	}
	return k
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// fallback runs the baseline similarity search after a strategy failed.
func fallback(ctx context.Context, logger *slog.Logger, kind Kind, query string, store vectorstore.Store, k int, cause error) ([]schema.Document, error) {
	loggerOrDefault(logger).Warn("Retrieval failed, falling back to similarity search",
		"strategy", kind.String(), "error", cause)

	docs, err := store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("%s retrieval failed (%v) and similarity fallback failed: %w", kind, cause, err)
	}
	return docs, nil
}
