// Package mcp exposes page search and lookup over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "pagevec"

// Default and maximum result counts for the search and list tools.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Searcher runs nearest-neighbor searches over stored pages.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (search.Outcome, error)
}

// PageLookup loads stored pages.
type PageLookup interface {
	Get(ctx context.Context, id int64) (page.Page, error)
	List(ctx context.Context, limit, offset int) ([]page.Page, error)
}

// Server wraps the MCP server with the page tools.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	pages     PageLookup
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher Searcher, pages PageLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		pages:    pages,
		version:  version,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_pages",
		mcp.WithDescription("Find the stored web pages whose content is closest in meaning to a text query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of what to find"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of pages to return (default: %d, max: %d)", DefaultLimit, MaxLimit)),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)

	getPageTool := mcp.NewTool("get_page",
		mcp.WithDescription("Get the full content and metadata of a stored page by its ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The numeric ID of the page"),
		),
	)
	mcpServer.AddTool(getPageTool, s.handleGetPage)

	listTool := mcp.NewTool("list_pages",
		mcp.WithDescription("List the most recently stored pages"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of pages to return (default: %d, max: %d)", DefaultLimit, MaxLimit)),
		),
	)
	mcpServer.AddTool(listTool, s.handleListPages)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the pagevec server version"),
	)
	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

type pageSummary struct {
	ID      int64  `json:"id"`
	URI     string `json:"uri"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

type searchResult struct {
	pageSummary
	Distance          float64 `json:"distance"`
	SimilarityPercent float64 `json:"similarity_percent"`
}

type searchResponse struct {
	Degraded bool           `json:"degraded"`
	Results  []searchResult `json:"results"`
}

type pageDetail struct {
	pageSummary
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func summarize(p page.Page) pageSummary {
	return pageSummary{
		ID:      p.ID(),
		URI:     NewPageURI(p.ID()).String(),
		URL:     p.URL(),
		Title:   p.Title(),
		Summary: p.Metadata().Summary(),
	}
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := clampLimit(request.GetInt("limit", DefaultLimit))

	outcome, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "search failed", slog.Any("error", err))
		return toolError("search failed", err), nil
	}
	if outcome.Degraded() {
		s.logger.WarnContext(ctx, "search degraded", slog.Any("error", outcome.Cause()))
	}

	resp := searchResponse{
		Degraded: outcome.Degraded(),
		Results:  make([]searchResult, 0, outcome.Len()),
	}
	for _, m := range outcome.Matches() {
		resp.Results = append(resp.Results, searchResult{
			pageSummary:       summarize(m.Page()),
			Distance:          m.Distance(),
			SimilarityPercent: m.SimilarityPercent(),
		})
	}
	return jsonResult(resp)
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", idStr)), nil
	}

	p, err := s.pages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("page not found: %d", id)), nil
		}
		s.logger.ErrorContext(ctx, "failed to get page", slog.Int64("id", id), slog.Any("error", err))
		return toolError("failed to get page", err), nil
	}

	metadata := map[string]any(p.Metadata())
	if metadata == nil {
		metadata = map[string]any{}
	}
	return jsonResult(pageDetail{
		pageSummary: summarize(p),
		Content:     p.Content(),
		Metadata:    metadata,
		CreatedAt:   p.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt().Format(time.RFC3339),
	})
}

func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := clampLimit(request.GetInt("limit", DefaultLimit))

	pages, err := s.pages.List(ctx, limit, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list pages", slog.Any("error", err))
		return toolError("failed to list pages", err), nil
	}

	results := make([]pageSummary, len(pages))
	for i, p := range pages {
		results[i] = summarize(p)
	}
	return jsonResult(results)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

// clampLimit keeps tool limits within 1..MaxLimit.
func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func toolError(msg string, err error) *mcp.CallToolResult {
	kind := page.KindOf(err)
	if kind == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s): %v", msg, kind, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
