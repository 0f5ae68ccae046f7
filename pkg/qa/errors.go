package qa

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion    = errors.New("qa: question is empty")
	ErrLLMRequired      = errors.New("qa: llm required")
	ErrStoreRequired    = errors.New("qa: vector store required")
	ErrSearcherRequired = errors.New("qa: web searcher required")
	ErrPromptRequired   = errors.New("qa: prompt source required")
	ErrMalformedQueries = errors.New("qa: query generation output is not a JSON array")
	ErrNoUsableQueries  = errors.New("qa: no generated query survived filtering")
	ErrNoStrategyAnswer = errors.New("qa: strategy selection answer has no strategy number")
	ErrSummaryTaskPanic = errors.New("qa: summarization task panicked")
	ErrStagePanic       = errors.New("qa: stage panicked")
)

// StageError aborts a run. It names the stage that failed and wraps the
// cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Recovery records a failure a stage handled locally by substituting a
// default. Recovered failures never abort a run.
type Recovery struct {
	Stage Stage
	Err   error
}
