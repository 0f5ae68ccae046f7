package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

// PGVectorStore keeps documents in a pgvector table created by
// database.CreateEmbeddingsTable.
type PGVectorStore struct {
	pool      *pgxpool.Pool
	tableName string
	embedder  embeddings.Embedder
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]{0,62}$`)

// isValidTableName validates that a table name contains only safe characters
// to prevent SQL injection attacks
func isValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// NewPGVectorStore creates a store over tableName.
func NewPGVectorStore(pool *pgxpool.Pool, tableName string, embedder embeddings.Embedder) (*PGVectorStore, error) {
	if !isValidTableName(tableName) {
		return nil, fmt.Errorf("invalid table name: must contain only alphanumeric characters and underscores, start with a letter or underscore, and be 1-63 characters long")
	}
	if embedder == nil {
		return nil, ErrNoEmbedder
	}
	return &PGVectorStore{
		pool:      pool,
		tableName: tableName,
		embedder:  embedder,
	}, nil
}

func (vs *PGVectorStore) table() string {
	return pgx.Identifier{vs.tableName}.Sanitize()
}

func (vs *PGVectorStore) AddDocuments(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := vs.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (content, metadata, embedding)
		VALUES ($1, $2, $3)
	`, vs.table())

	batch := &pgx.Batch{}
	for i, doc := range docs {
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		batch.Queue(query, doc.PageContent, metadataJSON, pgvector.NewVector(vectors[i]))
	}

	br := vs.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range docs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}

	return nil
}

func (vs *PGVectorStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error) {
	results, err := vs.SimilaritySearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}
	return documentsOf(results), nil
}

func (vs *PGVectorStore) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...SearchOption) ([]SimilaritySearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := vs.nearest(ctx, query, k, applyOptions(opts))
	if err != nil {
		return nil, err
	}

	results := make([]SimilaritySearchResult, len(rows))
	for i, r := range rows {
		results[i] = SimilaritySearchResult{Document: r.doc, Score: r.similarity}
	}
	return results, nil
}

func (vs *PGVectorStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, diversity float64, opts ...SearchOption) ([]schema.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := vs.nearest(ctx, query, max(fetchK, k), applyOptions(opts))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	candidates := make([][]float32, len(rows))
	for i, r := range rows {
		candidates[i] = r.vector
	}

	picked := maximalMarginalRelevance(rows[0].queryVector, candidates, diversity, k)
	docs := make([]schema.Document, len(picked))
	for i, idx := range picked {
		docs[i] = rows[idx].doc
		docs[i].Score = float32(rows[idx].similarity)
	}
	return docs, nil
}

func (vs *PGVectorStore) Documents(ctx context.Context, opts ...SearchOption) ([]schema.Document, error) {
	var args []any
	whereClause, err := vs.buildMetadataQuery(applyOptions(opts).Filter, &args)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata query: %w", err)
	}

	rows, err := vs.pool.Query(ctx, fmt.Sprintf(`
		SELECT content, metadata
		FROM %s
		WHERE %s
		ORDER BY created_at, id
	`, vs.table(), whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var documents []schema.Document
	for rows.Next() {
		var doc schema.Document
		var metadataJSON []byte

		if err := rows.Scan(&doc.PageContent, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return documents, nil
}

type nearestRow struct {
	doc         schema.Document
	similarity  float64
	vector      []float32
	queryVector []float32
}

// nearest returns up to limit rows closest to query by cosine distance,
// along with their stored embeddings.
func (vs *PGVectorStore) nearest(ctx context.Context, query string, limit int, o SearchOptions) ([]nearestRow, error) {
	queryVector, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	args := []any{pgvector.NewVector(queryVector)}
	whereClause, err := vs.buildMetadataQuery(o.Filter, &args)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata query: %w", err)
	}
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT content, metadata, embedding, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, vs.table(), whereClause, len(args))

	rows, err := vs.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	var results []nearestRow
	for rows.Next() {
		var (
			r            nearestRow
			metadataJSON []byte
			embedding    pgvector.Vector
		)
		if err := rows.Scan(&r.doc.PageContent, &metadataJSON, &embedding, &r.similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &r.doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		r.vector = embedding.Slice()
		r.queryVector = queryVector
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// buildMetadataQuery recursively builds a SQL WHERE clause for a metadata
// filter, appending placeholder values to args.
func (vs *PGVectorStore) buildMetadataQuery(filter map[string]any, args *[]any) (string, error) {
	if len(filter) == 0 {
		return "TRUE", nil
	}

	var conditions []string

	for key, value := range filter {
		switch key {
		case "$and", "$or":
			list, ok := value.([]any)
			if !ok {
				return "", fmt.Errorf("value for %s must be a list of conditions", key)
			}
			var subConditions []string
			for _, item := range list {
				subMap, ok := item.(map[string]any)
				if !ok {
					return "", fmt.Errorf("item in %s list must be a JSON object", key)
				}
				subQuery, err := vs.buildMetadataQuery(subMap, args)
				if err != nil {
					return "", err
				}
				subConditions = append(subConditions, "("+subQuery+")")
			}

			if len(subConditions) == 0 {
				continue
			}

			op := " AND "
			if key == "$or" {
				op = " OR "
			}
			conditions = append(conditions, "("+strings.Join(subConditions, op)+")")

		case "$not":
			subMap, ok := value.(map[string]any)
			if !ok {
				return "", fmt.Errorf("value for $not must be a JSON object")
			}
			subQuery, err := vs.buildMetadataQuery(subMap, args)
			if err != nil {
				return "", err
			}
			conditions = append(conditions, "NOT ("+subQuery+")")

		default:
			// metadata @> '{"key": value}'
			jsonBytes, err := json.Marshal(map[string]any{key: value})
			if err != nil {
				return "", fmt.Errorf("failed to marshal metadata pair: %w", err)
			}
			*args = append(*args, jsonBytes)
			conditions = append(conditions, fmt.Sprintf("metadata @> $%d", len(*args)))
		}
	}

	if len(conditions) == 0 {
		return "TRUE", nil
	}

	return strings.Join(conditions, " AND "), nil
}
