package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
)

// ModelType names a Google AI model.
type ModelType string

const (
	// DefaultModel is the default model to use if none is specified
	DefaultModel ModelType = "gemini-3-flash-preview"
	ProModel     ModelType = "gemini-3-pro-preview"
)

// GoogleAI creates a Gemini chat model.
// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
func GoogleAI(ctx context.Context, apiKey string, model ModelType) (*googleai.GoogleAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}

	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(model)))
	if err != nil {
		return nil, fmt.Errorf("failed to create google ai client: %w", err)
	}
	return llm, nil
}
