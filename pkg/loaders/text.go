package loaders

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/schema"
)

// TextFile loads a whole file as one document. Invalid UTF-8 sequences are
// replaced.
type TextFile struct {
	Path string
}

func (t TextFile) Load(ctx context.Context) ([]schema.Document, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.Path, err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	return []schema.Document{{
		PageContent: text,
		Metadata:    map[string]any{"source": t.Path},
	}}, nil
}
