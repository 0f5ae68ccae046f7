// Package splitter chunks loaded documents before they are indexed.
package splitter

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// TextSplitter wraps the langchaingo recursive character splitter
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewRecursiveCharacterTextSplitter creates a new recursive character text splitter
func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &TextSplitter{splitter: ts}
}

// SplitText splits text into chunks
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	return ts.splitter.SplitText(text)
}

// SplitDocuments chunks every document. Chunks inherit their document's
// metadata and get a "chunk" index plus a "url" of the form
// <source>#chunk-<n>, which keeps chunks of one source distinct in ranking.
func (ts *TextSplitter) SplitDocuments(docs []schema.Document) ([]schema.Document, error) {
	var out []schema.Document
	for _, doc := range docs {
		chunks, err := ts.splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split document: %w", err)
		}

		source, _ := doc.Metadata["source"].(string)
		for i, chunk := range chunks {
			meta := make(map[string]any, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["chunk"] = i
			if source != "" {
				meta["url"] = fmt.Sprintf("%s#chunk-%d", source, i)
			}
			out = append(out, schema.Document{PageContent: chunk, Metadata: meta})
		}
	}
	return out, nil
}
