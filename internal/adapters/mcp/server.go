package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brian-an/wisconsin-law-rag/internal/core/ports"
)

const defaultSearchLimit = 10

// Server exposes the retrieval pipeline as MCP tools so agent clients
// can search the corpus without going through the HTTP API.
type Server struct {
	retrieval ports.RetrievalService
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

func NewServer(retrieval ports.RetrievalService, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		retrieval: retrieval,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"wisconsin-law-rag",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	searchTool := mcp.NewTool("legal_search",
		mcp.WithDescription("Search the Wisconsin legal corpus (statutes, case law, training material). Returns ranked chunks with relevance scores."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question or statute number, e.g. 'OWI penalties' or '346.63'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results, default 10."),
		),
	)
	mcpServer.AddTool(searchTool, s.handleLegalSearch)

	askTool := mcp.NewTool("legal_ask",
		mcp.WithDescription("Run the full retrieval pipeline for a question and return the assembled context window with a confidence score."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to retrieve context for."),
		),
	)
	mcpServer.AddTool(askTool, s.handleLegalAsk)

	s.mcpServer = mcpServer
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleLegalSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)

	ranked, expanded, err := s.retrieval.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("mcp_legal_search_failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	type result struct {
		ChunkID      string  `json:"chunk_id"`
		Title        string  `json:"title,omitempty"`
		SourceType   string  `json:"source_type"`
		SourceFile   string  `json:"source_file,omitempty"`
		Text         string  `json:"text"`
		BoostedScore float64 `json:"score"`
	}
	results := make([]result, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, result{
			ChunkID:      r.Chunk.ID,
			Title:        r.Chunk.Title,
			SourceType:   string(r.Chunk.SourceType),
			SourceFile:   r.Chunk.SourceFile,
			Text:         r.Chunk.Text,
			BoostedScore: r.BoostedScore,
		})
	}

	payload, err := json.Marshal(map[string]any{
		"query":          expanded.Original,
		"expanded_query": expanded.SemanticQuery,
		"results":        results,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search results: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleLegalAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.retrieval.Retrieve(ctx, question)
	if err != nil {
		s.logger.Warn("mcp_legal_ask_failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	payload, err := json.Marshal(map[string]any{
		"context":    result.Context,
		"confidence": result.Confidence,
		"degraded":   result.Degraded,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieval result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
