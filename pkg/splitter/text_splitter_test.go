package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestSplitText(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(50, 0)

	chunks, err := ts.SplitText(strings.Repeat("word ", 40))
	require.NoError(t, err)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestSplitDocuments(t *testing.T) {
	ts := NewRecursiveCharacterTextSplitter(40, 0)
	docs := []schema.Document{
		{
			PageContent: "The war began in 1939.\n\nIt ended in 1945.",
			Metadata:    map[string]any{"source": "ww2.txt", "title": "WW2"},
		},
		{PageContent: "short note"},
	}

	chunks, err := ts.SplitDocuments(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "The war began in 1939.", chunks[0].PageContent)
	assert.Equal(t, "ww2.txt#chunk-0", chunks[0].Metadata["url"])
	assert.Equal(t, "ww2.txt#chunk-1", chunks[1].Metadata["url"])
	assert.Equal(t, 1, chunks[1].Metadata["chunk"])
	assert.Equal(t, "WW2", chunks[1].Metadata["title"])

	assert.Equal(t, "short note", chunks[2].PageContent)
	assert.NotContains(t, chunks[2].Metadata, "url")

	// the input metadata is left alone
	assert.NotContains(t, docs[0].Metadata, "chunk")
}
