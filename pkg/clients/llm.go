package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/ennchan-rag/pkg/config"
)

// LLM adapts a langchaingo model to the single-prompt call used by the
// answer pipeline.
type LLM struct {
	Model   llms.Model
	Options []llms.CallOption
}

// DefaultCallOptions mirror the sampling settings of the text-generation
// pipeline the prompts were written for.
func DefaultCallOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0.7),
		llms.WithTopP(0.9),
	}
}

// NewLLM wraps model with the default call options.
func NewLLM(model llms.Model) *LLM {
	return &LLM{Model: model, Options: DefaultCallOptions()}
}

// Invoke sends prompt as a single human message and returns the text of the
// first choice.
func (l *LLM) Invoke(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, l.Model, prompt, l.Options...)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return out, nil
}

// New builds the chat model selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (*LLM, error) {
	model := ModelType(cfg.ModelName)

	var (
		m   llms.Model
		err error
	)
	switch strings.ToLower(cfg.LLMProvider) {
	case "google", "":
		m, err = GoogleAI(ctx, cfg.GoogleApiKey, model)
	case "openai":
		m, err = OpenAI(cfg.OpenAIApiKey, cfg.OpenAIBaseURL, model)
	case "anthropic":
		m, err = AnthropicAI(cfg.AnthropicApiKey, model)
	case "ollama":
		m, err = Ollama(cfg.OllamaURL, model)
	default:
		return nil, fmt.Errorf("invalid llm provider: %s", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	return NewLLM(m), nil
}
