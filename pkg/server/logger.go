package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the part of pgxpool.Pool the log handler needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DBLogHandler is a slog.Handler that writes records of one ask job to
// qa_logs.
type DBLogHandler struct {
	db    execer
	jobID uuid.UUID
	level slog.Leveler
	attrs []slog.Attr
	group string
}

func NewDBLogHandler(db execer, jobID uuid.UUID, level slog.Leveler) *DBLogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &DBLogHandler{db: db, jobID: jobID, level: level}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = logValue(a.Value.Resolve())
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = logValue(a.Value.Resolve())
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO qa_logs (job_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// logs must persist after the request context is gone
	_, err = h.db.Exec(context.Background(), query, h.jobID, r.Time, r.Level.String(), r.Message, metaJSON)
	return err
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &next
}

func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *DBLogHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// logValue keeps errors readable in JSON.
func logValue(v slog.Value) any {
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}
