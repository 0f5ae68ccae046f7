package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	args [][]any
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.args = append(r.args, args)
	return pgconn.CommandTag{}, nil
}

func metadata(t *testing.T, args []any) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(args[4].([]byte), &m))
	return m
}

func TestDBLogHandler(t *testing.T) {
	db := &recordingExecer{}
	jobID := uuid.New()
	logger := slog.New(NewDBLogHandler(db, jobID, nil)).With("run_id", "r1")

	logger.Debug("Hidden")
	logger.Warn("Web search failed", "query", "ww2", "error", errors.New("timeout"))

	require.Len(t, db.args, 1)
	args := db.args[0]
	assert.Equal(t, jobID, args[0])
	assert.Equal(t, "WARN", args[2])
	assert.Equal(t, "Web search failed", args[3])
	assert.Equal(t, map[string]any{"run_id": "r1", "query": "ww2", "error": "timeout"}, metadata(t, args))
}

func TestDBLogHandler_Groups(t *testing.T) {
	db := &recordingExecer{}
	logger := slog.New(NewDBLogHandler(db, uuid.New(), slog.LevelDebug)).WithGroup("qa").With("stage", "retrieve")

	logger.Debug("Retrieved documents", "count", 3)

	require.Len(t, db.args, 1)
	assert.Equal(t, map[string]any{"qa.stage": "retrieve", "qa.count": float64(3)}, metadata(t, db.args[0]))
}
