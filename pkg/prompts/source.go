// Package prompts holds the answer prompt sources and the templates the
// pipeline stages fill in.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// RAGPromptName is the name of the builtin answer prompt.
const RAGPromptName = "rlm/rag-prompt"

const ragPrompt = `You are an assistant for question-answering tasks. Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise.
Question: {{.question}}
Context: {{.context}}
Answer:`

var builtins = map[string]string{
	RAGPromptName: ragPrompt,
}

// ErrUnknownPrompt is returned for a source that is neither a builtin name
// nor a readable file.
var ErrUnknownPrompt = errors.New("prompts: unknown prompt source")

// Source supplies the answer prompt. The template receives the variables
// "question" and "context".
type Source interface {
	Load() (prompts.PromptTemplate, error)
}

// Builtin is a prompt shipped with the binary, looked up by name.
type Builtin string

func (b Builtin) Load() (prompts.PromptTemplate, error) {
	text, ok := builtins[string(b)]
	if !ok {
		return prompts.PromptTemplate{}, fmt.Errorf("%w: %s", ErrUnknownPrompt, string(b))
	}
	return answerTemplate(text)
}

// File reads a Go text/template prompt from disk.
type File string

func (f File) Load() (prompts.PromptTemplate, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return prompts.PromptTemplate{}, fmt.Errorf("failed to read prompt file %s: %w", string(f), err)
	}
	return answerTemplate(string(data))
}

// Text is an inline template.
type Text string

func (t Text) Load() (prompts.PromptTemplate, error) {
	return answerTemplate(string(t))
}

// FromConfig resolves a configured prompt_source: a builtin name, else a
// file path.
func FromConfig(source string) Source {
	source = strings.TrimSpace(source)
	if source == "" {
		return Builtin(RAGPromptName)
	}
	if _, ok := builtins[source]; ok {
		return Builtin(source)
	}
	return File(source)
}

// answerTemplate builds the template and renders it once so that syntax
// errors surface at load time.
func answerTemplate(text string) (prompts.PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return prompts.PromptTemplate{}, fmt.Errorf("%w: empty template", ErrUnknownPrompt)
	}

	tmpl := prompts.NewPromptTemplate(text, []string{"question", "context"})
	if _, err := tmpl.Format(map[string]any{"question": "", "context": ""}); err != nil {
		return prompts.PromptTemplate{}, fmt.Errorf("invalid prompt template: %w", err)
	}
	return tmpl, nil
}
