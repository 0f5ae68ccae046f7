package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikeboe/ennchan-rag/pkg/config"
	"github.com/mikeboe/ennchan-rag/pkg/database"
	"github.com/mikeboe/ennchan-rag/pkg/embeddings"
)

// Open builds the store selected by cfg.VectorStore. For pgvector the
// extension and collection table are created on demand and the returned db
// must be closed by the caller; for memory db is nil.
func Open(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (Store, *database.PostgresDB, error) {
	switch strings.ToLower(cfg.VectorStore) {
	case "memory", "":
		store, err := NewMemoryStore(embedder)
		return store, nil, err

	case "pgvector", "postgres":
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureVectorExtension(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure vector extension: %w", err)
		}
		if err := db.CreateEmbeddingsTable(ctx, cfg.CollectionName, cfg.EmbeddingDimension); err != nil {
			db.Close()
			return nil, nil, err
		}
		store, err := NewPGVectorStore(db.Pool, cfg.CollectionName, embedder)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db, nil

	default:
		return nil, nil, fmt.Errorf("invalid vector store: %s", cfg.VectorStore)
	}
}
