// Package dto holds the JSON:API request and response shapes of the v1 API.
package dto

import "github.com/helixml/pagevec/infrastructure/api/jsonapi"

// PageAttributes are the attributes of a page resource. The embedding is
// omitted unless the caller asks for it.
type PageAttributes struct {
	URL          string            `json:"url"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Metadata     map[string]any    `json:"metadata"`
	Summary      string            `json:"summary,omitempty"`
	HasEmbedding bool              `json:"has_embedding"`
	Embedding    []float64         `json:"embedding,omitempty"`
	CreatedAt    *jsonapi.DateTime `json:"created_at,omitempty"`
	UpdatedAt    *jsonapi.DateTime `json:"updated_at,omitempty"`
}

// PageData is a page resource.
type PageData struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes PageAttributes `json:"attributes"`
}

// PageResponse is a single page document.
type PageResponse struct {
	Data PageData `json:"data"`
}

// PageListResponse is a paginated list of pages.
type PageListResponse struct {
	Data  []PageData     `json:"data"`
	Meta  *jsonapi.Meta  `json:"meta,omitempty"`
	Links *jsonapi.Links `json:"links,omitempty"`
}

// StorePageAttributes are the attributes of a store request.
type StorePageAttributes struct {
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StorePageData is the data of a store request.
type StorePageData struct {
	Type       string              `json:"type"`
	Attributes StorePageAttributes `json:"attributes"`
}

// StorePageRequest embeds and upserts a page.
type StorePageRequest struct {
	Data StorePageData `json:"data"`
}
