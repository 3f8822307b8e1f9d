package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ragdocs/internal/domain"
)

// SearchInput is the input schema for search_docs.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query in natural language"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for search_docs.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one matching chunk.
type SearchResultOutput struct {
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	ChunkIndex int     `json:"chunk_index"`
}

// GetDocumentInput is the input schema for get_document.
type GetDocumentInput struct {
	Path string `json:"path" jsonschema:"relative path to the document, e.g. api/authentication.md"`
}

// DocumentOutput is the output schema for get_document.
type DocumentOutput struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Size    int    `json:"size" jsonschema:"content size in bytes"`
}

// ListDocumentsInput takes no arguments.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents. Tree maps
// directory names to nested objects and document names to null.
type ListDocumentsOutput struct {
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	Tree           map[string]any `json:"tree"`
	FlatList       []string       `json:"flat_list"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Semantic search over indexed documentation chunks. Returns matching chunks with path, score, content and chunk_index.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Retrieve the full content of a documentation file by its relative path.",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documentation files as a nested tree and a sorted flat list.",
	}, s.handleListDocuments)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	start := time.Now()
	hits, err := s.retriever.Search(ctx, input.Query, input.Limit)
	if err != nil {
		s.log.Error().Err(err).Str("tool", "search_docs").Msg("tool failed")
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			Path:       h.Path,
			Score:      h.Score,
			Content:    h.Content,
			ChunkIndex: h.ChunkIndex,
		}
	}
	s.log.Debug().Str("query", input.Query).Int("hits", len(hits)).Dur("took", time.Since(start)).Msg("search_docs")
	return nil, output, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.retriever.GetDocument(ctx, input.Path)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", "get_document").Str("path", input.Path).Msg("tool failed")
		return nil, DocumentOutput{}, err
	}
	return nil, DocumentOutput{
		Path:    doc.Path,
		URL:     doc.URL,
		Content: doc.Content,
		Size:    doc.Size,
	}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	listing, err := s.retriever.ListDocuments(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("tool", "list_documents").Msg("tool failed")
		return nil, ListDocumentsOutput{}, err
	}
	flat := listing.FlatList
	if flat == nil {
		flat = []string{}
	}
	return nil, ListDocumentsOutput{
		TotalDocuments: listing.TotalDocuments,
		TotalChunks:    listing.TotalChunks,
		Tree:           treeObject(listing.Tree),
		FlatList:       flat,
	}, nil
}

// treeObject converts a Tree to plain JSON objects, keeping nil leaves.
func treeObject(t domain.Tree) map[string]any {
	out := make(map[string]any, len(t))
	for name, child := range t {
		if child == nil {
			out[name] = nil
			continue
		}
		out[name] = treeObject(child)
	}
	return out
}
