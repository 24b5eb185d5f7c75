package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/pagevec"
	apimiddleware "github.com/helixml/pagevec/infrastructure/api/middleware"
	v1 "github.com/helixml/pagevec/infrastructure/api/v1"
	mcpinternal "github.com/helixml/pagevec/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultRequestTimeout bounds every /api/v1 request.
const DefaultRequestTimeout = 90 * time.Second

// APIServer provides an HTTP API backed by a pagevec Client.
type APIServer struct {
	client      *pagevec.Client
	apiKeys     []string
	searchLimit int
	version     string
	server      *Server
	router      chi.Router
	logger      *slog.Logger
}

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithSearchLimit sets the result count used when a search request has none.
func WithSearchLimit(n int) APIServerOption {
	return func(a *APIServer) { a.searchLimit = n }
}

// WithVersion sets the version reported by /health and the MCP endpoint.
func WithVersion(v string) APIServerOption {
	return func(a *APIServer) { a.version = v }
}

// NewAPIServer creates a new APIServer wired to the given Client. apiKeys
// write-protects POST /api/v1/pages; reads, search and MCP remain open.
func NewAPIServer(client *pagevec.Client, apiKeys []string, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:      client,
		apiKeys:     apiKeys,
		searchLimit: mcpinternal.DefaultLimit,
		version:     "dev",
		logger:      client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before MountRoutes.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes wires up all routes on the router.
func (a *APIServer) MountRoutes() {
	a.mountRoutes(a.Router())
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	pagesRouter := v1.NewPagesRouter(c)
	searchRouter := v1.NewSearchRouter(c, a.searchLimit)

	router.Get("/health", a.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(DefaultRequestTimeout))

		// Search is a read-only POST.
		r.Mount("/search", searchRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtect(apimiddleware.NewAuthConfigWithKeys(a.apiKeys)))
			r.Mount("/pages", pagesRouter.Routes())
		})
	})

	// MCP streams responses, so it sits outside the timeout group.
	mcpSrv := mcpinternal.NewServer(c.Index, c.Pages, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Pages   *int64 `json:"pages,omitempty"`
}

func (a *APIServer) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Version: a.version}
	n, err := a.client.Pages.Count(r.Context())
	if err != nil {
		a.logger.WarnContext(r.Context(), "health check could not count pages", slog.Any("error", err))
		resp.Status = "degraded"
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Pages = &n
	apimiddleware.WriteJSON(w, http.StatusOK, resp)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the fully wired router, with the standard middleware, for
// use with custom servers and tests.
func (a *APIServer) Handler() http.Handler {
	srv := NewServer("", a.logger)
	a.mountRoutes(srv.Router())
	return srv.Router()
}
