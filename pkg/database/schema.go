package database

import (
	"context"
	"fmt"
)

// InitSchema creates the tables backing the ask job API.
func (db *PostgresDB) InitSchema(ctx context.Context) error {
	jobsQuery := `
		CREATE TABLE IF NOT EXISTS qa_jobs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			question TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			mode TEXT NOT NULL DEFAULT 'search',
			answer TEXT,
			question_type TEXT,
			strategy TEXT,
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, jobsQuery); err != nil {
		return fmt.Errorf("failed to create qa_jobs table: %w", err)
	}

	logsQuery := `
		CREATE TABLE IF NOT EXISTS qa_logs (
			id SERIAL PRIMARY KEY,
			job_id UUID NOT NULL REFERENCES qa_jobs(id) ON DELETE CASCADE,
			timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata JSONB
		);
	`
	if _, err := db.Pool.Exec(ctx, logsQuery); err != nil {
		return fmt.Errorf("failed to create qa_logs table: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_qa_logs_job_id ON qa_logs(job_id)"); err != nil {
		return fmt.Errorf("failed to create index on qa_logs: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_qa_jobs_created_at ON qa_jobs(created_at DESC)"); err != nil {
		return fmt.Errorf("failed to create index on qa_jobs: %w", err)
	}

	return nil
}
