// Package v1 implements the version 1 HTTP API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/pagevec"
	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/infrastructure/api/jsonapi"
	"github.com/helixml/pagevec/infrastructure/api/middleware"
	"github.com/helixml/pagevec/infrastructure/api/v1/dto"
)

// PageType is the JSON:API resource type of a stored page.
const PageType = "page"

// PagesRouter handles page API endpoints.
type PagesRouter struct {
	client *pagevec.Client
	logger *slog.Logger
}

// NewPagesRouter creates a new PagesRouter.
func NewPagesRouter(client *pagevec.Client) *PagesRouter {
	return &PagesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for page endpoints.
func (r *PagesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Store)
	router.Get("/{id}", r.Get)

	return router
}

// List handles GET /api/v1/pages. With ?url= it returns the single page
// stored under that URL.
func (r *PagesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if url := req.URL.Query().Get("url"); url != "" {
		p, err := r.client.Pages.FindByURL(ctx, url)
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, dto.PageListResponse{
			Data: []dto.PageData{pageToDTO(p, false)},
		})
		return
	}

	params := ParsePagination(req)
	pages, err := r.client.Pages.List(ctx, params.Limit(), params.Offset())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.Pages.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.PageData, len(pages))
	for i, p := range pages {
		data[i] = pageToDTO(p, false)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.PageListResponse{
		Data:  data,
		Meta:  PaginationMeta(params, total),
		Links: PaginationLinks(req, params, total),
	})
}

// Get handles GET /api/v1/pages/{id}. Pass ?include_embedding=true to
// return the stored vector.
func (r *PagesRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id < 1 {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid page id", err), r.logger)
		return
	}

	p, err := r.client.Pages.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	withEmbedding, _ := strconv.ParseBool(req.URL.Query().Get("include_embedding"))
	middleware.WriteJSON(w, http.StatusOK, dto.PageResponse{Data: pageToDTO(p, withEmbedding)})
}

// Store handles POST /api/v1/pages. The content is embedded and the page is
// upserted by URL; nothing is written when embedding fails.
func (r *PagesRouter) Store(w http.ResponseWriter, req *http.Request) {
	var body dto.StorePageRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	attrs := body.Data.Attributes
	p, err := r.client.Index.StoreWithEmbedding(req.Context(), attrs.URL, attrs.Title, attrs.Content, page.Metadata(attrs.Metadata))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", req.URL.Path, p.ID()))
	middleware.WriteJSON(w, http.StatusCreated, dto.PageResponse{Data: pageToDTO(p, false)})
}

func pageToDTO(p page.Page, withEmbedding bool) dto.PageData {
	attrs := dto.PageAttributes{
		URL:          p.URL(),
		Title:        p.Title(),
		Content:      p.Content(),
		Metadata:     map[string]any(p.Metadata()),
		Summary:      p.Metadata().Summary(),
		HasEmbedding: p.HasEmbedding(),
		CreatedAt:    jsonapi.NewDateTime(p.CreatedAt()).Ptr(),
		UpdatedAt:    jsonapi.NewDateTime(p.UpdatedAt()).Ptr(),
	}
	if attrs.Metadata == nil {
		attrs.Metadata = map[string]any{}
	}
	if withEmbedding {
		attrs.Embedding = p.Embedding()
	}
	return dto.PageData{
		Type:       PageType,
		ID:         strconv.FormatInt(p.ID(), 10),
		Attributes: attrs,
	}
}
