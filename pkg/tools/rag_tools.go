// Package tools exposes the answer pipeline and the document store as MCP
// tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tmc/langchaingo/schema"

	"github.com/mikeboe/ennchan-rag/pkg/app"
	"github.com/mikeboe/ennchan-rag/pkg/vectorstore"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

const defaultTopK = 5

type RagToolset struct {
	Runtime *app.Runtime
}

func NewRagToolset(rt *app.Runtime) *RagToolset {
	return &RagToolset{Runtime: rt}
}

// NewServer returns an MCP server carrying every tool of the set.
func (t *RagToolset) NewServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "ennchan-rag", Version: version}, nil)
	t.Register(server)
	return server
}

// Register adds the tools to server.
func (t *RagToolset) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question. By default the web is searched first; set direct to answer from the indexed documents only.",
	}, t.askTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_content",
		Description: "Search the indexed documents using semantic search.",
	}, t.searchContentTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_content_by_metadata",
		Description: "Find indexed documents using logical filters on metadata.",
	}, t.findContentByMetadataTool)
}

// --- Tool Implementations ---

type AskArgs struct {
	Question string `json:"question" jsonschema:"The question to answer"`
	Direct   bool   `json:"direct,omitempty" jsonschema:"Answer from indexed documents only, without a web search"`
}

type AskResp struct {
	Answer   string `json:"answer"`
	Strategy string `json:"strategy,omitempty"`
}

func (t *RagToolset) askTool(ctx context.Context, req *mcp.CallToolRequest, args AskArgs) (*mcp.CallToolResult, any, error) {
	resp, err := t.Ask(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(resp.Answer), nil, nil
}

// Ask runs the pipeline and returns the cleaned answer.
func (t *RagToolset) Ask(ctx context.Context, args AskArgs) (AskResp, error) {
	if strings.TrimSpace(args.Question) == "" {
		return AskResp{}, errors.New("question is required")
	}

	mode := app.ModeSearch
	if args.Direct {
		mode = app.ModeDirect
	}
	slog.Info("Ask tool called", "question", args.Question, "mode", mode)

	state, err := t.Runtime.Ask(ctx, mode, args.Question)
	if err != nil {
		return AskResp{}, err
	}
	return AskResp{Answer: app.CleanAnswer(state.Answer), Strategy: state.SelectedRetrievalStrategy}, nil
}

type SearchContentArgs struct {
	Query  string `json:"query" jsonschema:"The search query"`
	TopK   int    `json:"topK,omitempty" jsonschema:"Number of results to return (default 5)"`
	Source string `json:"source,omitempty" jsonschema:"Optional source filter"`
}

type SearchContentResp struct {
	Results string `json:"results"`
}

func (t *RagToolset) searchContentTool(ctx context.Context, req *mcp.CallToolRequest, args SearchContentArgs) (*mcp.CallToolResult, any, error) {
	resp, err := t.SearchContent(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(resp.Results), nil, nil
}

func (t *RagToolset) SearchContent(ctx context.Context, args SearchContentArgs) (SearchContentResp, error) {
	if args.TopK <= 0 {
		args.TopK = defaultTopK
	}

	slog.Info("Search content", "query", args.Query, "topK", args.TopK, "source", args.Source)

	var opts []vectorstore.SearchOption
	if args.Source != "" {
		opts = append(opts, vectorstore.WithFilter(map[string]any{"source": args.Source}))
	}

	results, err := t.Runtime.Store.SimilaritySearchWithScore(ctx, args.Query, args.TopK, opts...)
	if err != nil {
		return SearchContentResp{}, fmt.Errorf("failed to search: %w", err)
	}

	formatted := make([]string, len(results))
	for i, result := range results {
		formatted[i] = formatDocument(result.Document, fmt.Sprintf("\n[score]: %.4f", result.Score))
	}
	return SearchContentResp{Results: strings.Join(formatted, "\n\n")}, nil
}

type FindMetadataArgs struct {
	Filter map[string]any `json:"filter" jsonschema:"JSON filter object with logical operators ($and, $or, $not)"`
}

type FindMetadataResp struct {
	Content string `json:"content"`
}

func (t *RagToolset) findContentByMetadataTool(ctx context.Context, req *mcp.CallToolRequest, args FindMetadataArgs) (*mcp.CallToolResult, any, error) {
	resp, err := t.FindContentByMetadata(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return textResult(resp.Content), nil, nil
}

func (t *RagToolset) FindContentByMetadata(ctx context.Context, args FindMetadataArgs) (FindMetadataResp, error) {
	matched, err := t.Runtime.Store.Documents(ctx, vectorstore.WithFilter(args.Filter))
	if err != nil {
		return FindMetadataResp{}, fmt.Errorf("failed to find documents: %w", err)
	}

	formatted := make([]string, len(matched))
	for i, doc := range matched {
		formatted[i] = formatDocument(doc, "")
	}
	return FindMetadataResp{Content: strings.Join(formatted, "\n\n")}, nil
}

// formatDocument renders the source first, then the content and the
// remaining metadata in key order.
func formatDocument(doc schema.Document, suffix string) string {
	source := "unknown"
	if s, ok := doc.Metadata["source"].(string); ok {
		source = s
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[Source]: %s\n[Content]: %s", source, doc.PageContent)

	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		if k != "source" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n[%s]: %v", k, doc.Metadata[k])
	}

	sb.WriteString(suffix)
	return sb.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
