package dto

// SearchAttributes are the attributes of a search request.
type SearchAttributes struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// SearchData is the data of a search request.
type SearchData struct {
	Type       string           `json:"type"`
	Attributes SearchAttributes `json:"attributes"`
}

// SearchRequest is a nearest-neighbor search over stored pages.
type SearchRequest struct {
	Data SearchData `json:"data"`
}

// SearchResultAttributes are the attributes of one ranked page.
type SearchResultAttributes struct {
	URL               string         `json:"url"`
	Title             string         `json:"title"`
	Content           string         `json:"content"`
	Metadata          map[string]any `json:"metadata"`
	Distance          float64        `json:"distance"`
	Similarity        float64        `json:"similarity"`
	SimilarityPercent float64        `json:"similarity_percent"`
}

// SearchResult is a ranked page resource.
type SearchResult struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes SearchResultAttributes `json:"attributes"`
}

// SearchMeta describes the search outcome. Degraded is true when the
// ranking scan failed and the result list was emptied.
type SearchMeta struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Count    int    `json:"count"`
	Degraded bool   `json:"degraded"`
}

// SearchResponse is the ranked result list, closest first.
type SearchResponse struct {
	Data []SearchResult `json:"data"`
	Meta SearchMeta     `json:"meta"`
}
