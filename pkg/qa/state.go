package qa

import (
	"slices"

	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

// QuestionType is the classifier label. Labels outside the known set are
// kept as returned.
type QuestionType string

const (
	Factual     QuestionType = "FACTUAL"
	HowTo       QuestionType = "HOW_TO"
	Opinion     QuestionType = "OPINION"
	Comparison  QuestionType = "COMPARISON"
	Explanation QuestionType = "EXPLANATION"
)

// Known reports whether q is one of the five classifier categories.
func (q QuestionType) Known() bool {
	switch q {
	case Factual, HowTo, Opinion, Comparison, Explanation:
		return true
	}
	return false
}

// Stage names a step of the pipeline.
type Stage int

const (
	StageFormulateQuery Stage = iota + 1
	StageSearchWeb
	StageProcessResults
	StageCompileReference
	StageRetrieve
	StageGenerate
)

func (s Stage) String() string {
	switch s {
	case StageFormulateQuery:
		return "formulate_query"
	case StageSearchWeb:
		return "search_web"
	case StageProcessResults:
		return "process_results"
	case StageCompileReference:
		return "compile_reference"
	case StageRetrieve:
		return "retrieve"
	case StageGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// ProcessedResult is the summary of one search hit.
type ProcessedResult struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	Summary         string `json:"summary"`
	OriginalContent string `json:"original_content"`
}

// State is threaded through the stages by value. A stage sets only the
// fields it owns and returns the new State; every run starts from a fresh
// State holding only the question.
type State struct {
	RunID    string
	Question string

	// FormulateQuery
	QuestionType  QuestionType
	SearchQueries []string

	// SearchWeb
	RawSearchResults    []websearch.Hit
	SearchDocumentCount int

	// ProcessResults, in completion order
	ProcessedResults []ProcessedResult

	// CompileReference
	ReferenceDocument string

	// Retrieve
	Context                   []schema.Document
	SelectedRetrievalStrategy string

	// Generate
	Answer string

	// Recoveries lists every failure a stage handled locally.
	Recoveries []Recovery
}

// recovered returns s with r appended to a fresh copy of Recoveries so
// earlier States never observe the new entry.
func (s State) recovered(stage Stage, err error) State {
	s.Recoveries = append(slices.Clip(s.Recoveries), Recovery{Stage: stage, Err: err})
	return s
}
