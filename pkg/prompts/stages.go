package prompts

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

var (
	// Classify asks for one of the question type labels.
	Classify = prompts.NewPromptTemplate(`Classify the following question into exactly one of these categories:
FACTUAL, HOW_TO, OPINION, COMPARISON, EXPLANATION

Question: {{.question}}

Respond with only the category name.`, []string{"question"})

	// GenerateQueries asks for a JSON array of search queries.
	GenerateQueries = prompts.NewPromptTemplate(`Your task is to convert a user's question into effective search engine queries.
The question has been classified as: {{.question_type}}

Generate between 1 and 3 search queries that together cover the information needed to answer the question.
Make each query concise and focused on retrieving factual information.
Remove any personal elements and focus on the core information need.

User question: {{.question}}

Respond with a JSON array of strings only, for example: ["first query", "second query"]`, []string{"question", "question_type"})

	// Summarize condenses one search hit with respect to the question.
	Summarize = prompts.NewPromptTemplate(`Summarize the following content in relation to the question.
Keep only the information that helps answer the question.

Question: {{.question}}

Title: {{.title}}
Content:
{{.content}}

Summary:`, []string{"question", "title", "content"})

	// CompileReference synthesizes the numbered summaries into one cited
	// reference document.
	CompileReference = prompts.NewPromptTemplate(`Using the following source summaries, write a comprehensive reference document that answers the question.
Cite the sources you use with [Source N] markers matching the numbers below.

Question: {{.question}}

{{.sources}}

Reference document:`, []string{"question", "sources"})

	// SelectStrategy asks for a retrieval strategy number.
	SelectStrategy = prompts.NewPromptTemplate(`Choose the best document retrieval strategy for the question below.

Question: {{.question}}
Question type: {{.question_type}}

1. Similarity search: the most semantically similar passages. Good for direct factual questions.
2. Maximal marginal relevance: relevant but diverse passages. Good for broad or opinion questions.
3. Hybrid search: semantic and keyword matching combined. Good for technical or comparison questions.
4. Keyword search: exact term matching. Good for questions about specific names or terms.

Respond with only the number of the strategy (1, 2, 3 or 4).`, []string{"question", "question_type"})
)

// SourceSummary is one numbered entry of the reference prompt.
type SourceSummary struct {
	Title   string
	URL     string
	Summary string
}

// FormatSources lists summaries with 1-based [Source N] headers.
func FormatSources(sources []SourceSummary) string {
	var sb strings.Builder
	for i, s := range sources {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source %d] %s\nURL: %s\n%s", i+1, s.Title, s.URL, s.Summary)
	}
	return sb.String()
}
