package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI creates a chat model for the OpenAI API or any compatible server.
// Local servers that don't require authentication get the token "none".
func OpenAI(apiKey, baseURL string, model ModelType) (*openai.LLM, error) {
	if apiKey == "" {
		apiKey = "none"
	}

	opts := []openai.Option{openai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, openai.WithModel(string(model)))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return llm, nil
}

// Ollama creates a chat model served by a local Ollama instance.
func Ollama(serverURL string, model ModelType) (*ollama.LLM, error) {
	llm, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return llm, nil
}
