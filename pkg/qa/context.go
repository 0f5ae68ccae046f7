package qa

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/schema"
)

const (
	contextSeparator     = "\n\n"
	contextFallbackRunes = 1000
)

// buildContext joins document contents in rank order with blank lines,
// adding a document only while the total stays below maxChars characters.
// Empty documents are skipped. When not even the first non-empty document
// fits, its first 1000 characters (at most maxChars) are used instead.
func buildContext(docs []schema.Document, maxChars int) string {
	var sb strings.Builder
	total := 0
	first := -1

	for i, doc := range docs {
		if doc.PageContent == "" {
			continue
		}
		if first < 0 {
			first = i
		}
		n := utf8.RuneCountInString(doc.PageContent)
		if sb.Len() > 0 {
			n += utf8.RuneCountInString(contextSeparator)
		}
		if total+n >= maxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString(doc.PageContent)
		total += n
	}

	if sb.Len() == 0 && first >= 0 {
		limit := contextFallbackRunes
		if maxChars > 0 && maxChars < limit {
			limit = maxChars
		}
		return truncateRunes(docs[first].PageContent, limit)
	}
	return sb.String()
}
