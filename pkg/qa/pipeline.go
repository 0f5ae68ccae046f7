// Package qa answers questions by chaining query formulation, web search,
// parallel summarization, reference compilation, retrieval and generation.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	lcprompts "github.com/tmc/langchaingo/prompts"

	"github.com/mikeboe/ennchan-rag/pkg/prompts"
	"github.com/mikeboe/ennchan-rag/pkg/retrieval"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
	"github.com/mikeboe/ennchan-rag/pkg/websearch"
)

// LLM completes a single prompt.
type LLM interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

const (
	DefaultContextScope   = 1000
	DefaultSummaryWorkers = 5
)

type stageFunc func(ctx context.Context, log *slog.Logger, s State) (State, error)

type stage struct {
	name Stage
	run  stageFunc
}

// Pipeline answers questions. It is safe for concurrent use; each Run works
// on its own State.
type Pipeline struct {
	llm      LLM
	store    vectorstore.Store
	searcher websearch.Searcher
	template lcprompts.PromptTemplate

	contextScope int
	strategy     retrieval.Strategy
	pool         *ants.Pool
	logger       *slog.Logger
	onStage      func(Stage, State)

	stages []stage
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSummaryWorkers sets how many search hits are summarized concurrently.
func WithSummaryWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("summary workers must be positive, got %d", n)
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithContextScope bounds the assembled context in characters.
func WithContextScope(maxChars int) Option {
	return func(p *Pipeline) error {
		if maxChars < 1 {
			return fmt.Errorf("context scope must be positive, got %d", maxChars)
		}
		p.contextScope = maxChars
		return nil
	}
}

// WithStrategy fixes the retrieval strategy instead of asking the model to
// pick one.
func WithStrategy(s retrieval.Strategy) Option {
	return func(p *Pipeline) error {
		p.strategy = s
		return nil
	}
}

// WithStageHook registers fn to observe the State after every completed
// stage. fn runs on the pipeline goroutine.
func WithStageHook(fn func(Stage, State)) Option {
	return func(p *Pipeline) error {
		p.onStage = fn
		return nil
	}
}

// NewSearchAugmented builds the full pipeline: FormulateQuery, SearchWeb,
// ProcessResults, CompileReference, Retrieve, Generate.
func NewSearchAugmented(llm LLM, store vectorstore.Store, searcher websearch.Searcher, source prompts.Source, opts ...Option) (*Pipeline, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	p, err := newPipeline(llm, store, source, opts)
	if err != nil {
		return nil, err
	}
	p.searcher = searcher
	p.stages = []stage{
		{StageFormulateQuery, p.formulateQuery},
		{StageSearchWeb, p.searchWeb},
		{StageProcessResults, p.processResults},
		{StageCompileReference, p.compileReference},
		{StageRetrieve, p.retrieve},
		{StageGenerate, p.generate},
	}
	return p, nil
}

// NewDirect builds the retrieve-then-generate pipeline over an already
// populated store. Without WithStrategy it uses similarity search.
func NewDirect(llm LLM, store vectorstore.Store, source prompts.Source, opts ...Option) (*Pipeline, error) {
	p, err := newPipeline(llm, store, source, opts)
	if err != nil {
		return nil, err
	}
	if p.strategy == nil {
		p.strategy = retrieval.FromID(1)
	}
	p.stages = []stage{
		{StageRetrieve, p.retrieve},
		{StageGenerate, p.generate},
	}
	return p, nil
}

func newPipeline(llm LLM, store vectorstore.Store, source prompts.Source, opts []Option) (*Pipeline, error) {
	if llm == nil {
		return nil, ErrLLMRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if source == nil {
		return nil, ErrPromptRequired
	}

	template, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load answer prompt: %w", err)
	}

	p := &Pipeline{
		llm:          llm,
		store:        store,
		template:     template,
		contextScope: DefaultContextScope,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(DefaultSummaryWorkers)
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	return p, nil
}

// Release frees the summarization workers. The pipeline must not be used
// afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Run answers question and returns the raw model output.
func (p *Pipeline) Run(ctx context.Context, question string) (string, error) {
	state, err := p.RunState(ctx, question)
	if err != nil {
		return "", err
	}
	return state.Answer, nil
}

// RunState answers question and returns the final State. On failure the
// error is a *StageError and the State is the one the failing stage
// received.
func (p *Pipeline) RunState(ctx context.Context, question string) (State, error) {
	state := State{RunID: uuid.NewString(), Question: question}
	log := p.logger.With("run_id", state.RunID)

	if strings.TrimSpace(question) == "" {
		return state, &StageError{Stage: p.stages[0].name, Err: ErrEmptyQuestion}
	}

	log.Info("Starting pipeline", "question", question, "stages", len(p.stages))

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			log.Error("Pipeline cancelled", "stage", st.name.String(), "error", err)
			return state, &StageError{Stage: st.name, Err: err}
		}

		next, err := p.runStage(ctx, log, st, state)
		if err != nil {
			log.Error("Stage failed", "stage", st.name.String(), "error", err)
			return state, &StageError{Stage: st.name, Err: err}
		}
		state = next

		if p.onStage != nil {
			p.onStage(st.name, state)
		}
	}

	log.Info("Pipeline complete", "answer_length", len(state.Answer), "recoveries", len(state.Recoveries))
	return state, nil
}

// runStage turns a panic inside a stage into an error.
func (p *Pipeline) runStage(ctx context.Context, log *slog.Logger, st stage, s State) (next State, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Stage panicked", "stage", st.name.String(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return st.run(ctx, log.With("stage", st.name.String()), s)
}

// ask fills an internal prompt template and sends it to the model.
func (p *Pipeline) ask(ctx context.Context, tmpl lcprompts.PromptTemplate, values map[string]any) (string, error) {
	prompt, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}
	return p.llm.Invoke(ctx, prompt)
}
