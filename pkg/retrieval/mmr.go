package retrieval

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// DefaultFetchK is the candidate pool MMR reranks.
const DefaultFetchK = 20

// MMR reranks the FetchK nearest documents by maximal marginal relevance.
// Diversity 0 ranks by relevance only, 1 by novelty only.
type MMR struct {
	K         int
	FetchK    int
	Diversity float64
	Logger    *slog.Logger
}

func (MMR) Kind() Kind { return KindMMR }
func (MMR) sealed() {}

func (m MMR) Retrieve(ctx context.Context, query string, store vectorstore.Store) ([]schema.Document, error) {
	k := kOrDefault(m.K)
	fetchK := m.FetchK
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}

	docs, err := store.MaxMarginalRelevanceSearch(ctx, query, k, fetchK, m.Diversity)
	if err != nil {
		return fallback(ctx, m.Logger, m.Kind(), query, store, k, err)
	}
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}
