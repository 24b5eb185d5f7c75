package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/pagevec"
	"github.com/helixml/pagevec/domain/search"
	"github.com/helixml/pagevec/infrastructure/api/middleware"
	"github.com/helixml/pagevec/infrastructure/api/v1/dto"
)

// SearchResultType is the JSON:API resource type of a ranked page.
const SearchResultType = "search_result"

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client       *pagevec.Client
	defaultLimit int
	logger       *slog.Logger
}

// NewSearchRouter creates a new SearchRouter. Requests without a limit use
// defaultLimit.
func NewSearchRouter(client *pagevec.Client, defaultLimit int) *SearchRouter {
	if defaultLimit < 1 {
		defaultLimit = 5
	}
	return &SearchRouter{
		client:       client,
		defaultLimit: defaultLimit,
		logger:       client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	query := body.Data.Attributes.Query
	limit := r.defaultLimit
	if body.Data.Attributes.Limit != nil {
		limit = *body.Data.Attributes.Limit
	}

	outcome, err := r.client.Index.Search(req.Context(), query, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, searchResponse(outcome, query, limit))
}

func searchResponse(outcome search.Outcome, query string, limit int) dto.SearchResponse {
	matches := outcome.Matches()
	data := make([]dto.SearchResult, len(matches))
	for i, m := range matches {
		p := m.Page()
		metadata := map[string]any(p.Metadata())
		if metadata == nil {
			metadata = map[string]any{}
		}
		data[i] = dto.SearchResult{
			Type: SearchResultType,
			ID:   strconv.FormatInt(p.ID(), 10),
			Attributes: dto.SearchResultAttributes{
				URL:               p.URL(),
				Title:             p.Title(),
				Content:           p.Content(),
				Metadata:          metadata,
				Distance:          m.Distance(),
				Similarity:        m.Similarity(),
				SimilarityPercent: m.SimilarityPercent(),
			},
		}
	}
	return dto.SearchResponse{
		Data: data,
		Meta: dto.SearchMeta{
			Query:    query,
			Limit:    limit,
			Count:    len(data),
			Degraded: outcome.Degraded(),
		},
	}
}
