package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mikeboe/ennchan-rag/pkg/app"
	"github.com/mikeboe/ennchan-rag/pkg/database"
	"github.com/mikeboe/ennchan-rag/pkg/qa"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrJobNotFound    = errors.New("job not found")
)

// Service runs ask jobs in the background and records them in qa_jobs.
type Service struct {
	DB      *database.PostgresDB
	Runtime *app.Runtime

	ctx context.Context
	wg  sync.WaitGroup
}

// NewService creates a service whose jobs are cancelled with ctx.
func NewService(ctx context.Context, db *database.PostgresDB, rt *app.Runtime) *Service {
	return &Service{
		DB:      db,
		Runtime: rt,
		ctx:     ctx,
	}
}

type Job struct {
	ID           uuid.UUID `json:"id"`
	Question     string    `json:"question"`
	Status       string    `json:"status"`
	Mode         string    `json:"mode"`
	Answer       *string   `json:"answer,omitempty"`
	QuestionType *string   `json:"question_type,omitempty"`
	Strategy     *string   `json:"strategy,omitempty"`
	Error        *string   `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

func (r AskRequest) validate() (app.Mode, error) {
	if strings.TrimSpace(r.Question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	mode, err := app.ParseMode(r.Mode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return mode, nil
}

const jobColumns = `id, question, status, mode, answer, question_type, strategy, error, created_at, updated_at`

func scanJob(row pgx.Row, job *Job) error {
	return row.Scan(&job.ID, &job.Question, &job.Status, &job.Mode, &job.Answer,
		&job.QuestionType, &job.Strategy, &job.Error, &job.CreatedAt, &job.UpdatedAt)
}

func (s *Service) CreateJob(ctx context.Context, req AskRequest) (*Job, error) {
	mode, err := req.validate()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO qa_jobs (id, question, status, mode)
		VALUES ($1, $2, 'pending', $3)
		RETURNING ` + jobColumns

	job := &Job{}
	if err := scanJob(s.DB.Pool.QueryRow(ctx, query, uuid.New(), req.Question, string(mode)), job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runWorker(job.ID, req.Question, mode)
	}()

	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM qa_jobs WHERE id = $1`

	job := &Job{}
	if err := scanJob(s.DB.Pool.QueryRow(ctx, query, id), job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM qa_jobs ORDER BY created_at DESC LIMIT 50`

	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := scanJob(rows, &job); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type LogEntry struct {
	ID        int            `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM qa_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Wait blocks until every running job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) runWorker(jobID uuid.UUID, question string, mode app.Mode) {
	ctx := s.ctx
	dbLogger := slog.New(NewDBLogHandler(s.DB.Pool, jobID, slog.LevelInfo)).With("job_id", jobID.String())

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE qa_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", jobID)

	// persist the classification as soon as it is known
	onStage := func(stage qa.Stage, state qa.State) {
		if stage != qa.StageFormulateQuery {
			return
		}
		_, err := s.DB.Pool.Exec(context.Background(),
			"UPDATE qa_jobs SET question_type = $2, updated_at = NOW() WHERE id = $1",
			jobID, string(state.QuestionType))
		if err != nil {
			dbLogger.Error("Failed to save question type", "error", err)
		}
	}

	state, err := s.Runtime.Ask(ctx, mode, question, qa.WithLogger(dbLogger), qa.WithStageHook(onStage))
	if err != nil {
		s.failJob(jobID, dbLogger, err)
		return
	}

	_, err = s.DB.Pool.Exec(context.Background(),
		"UPDATE qa_jobs SET status = 'completed', answer = $2, strategy = $3, question_type = $4, updated_at = NOW() WHERE id = $1",
		jobID, app.CleanAnswer(state.Answer), state.SelectedRetrievalStrategy, string(state.QuestionType))
	if err != nil {
		dbLogger.Error("Failed to save answer", "error", err)
	}
}

func (s *Service) failJob(jobID uuid.UUID, dbLogger *slog.Logger, cause error) {
	dbLogger.Error("Ask job failed", "error", cause)

	_, _ = s.DB.Pool.Exec(context.Background(),
		"UPDATE qa_jobs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1",
		jobID, cause.Error())
}
