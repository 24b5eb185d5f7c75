package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/helixml/pagevec/infrastructure/api/jsonapi"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a 1-indexed page window over a list.
type PaginationParams struct {
	page     int
	pageSize int
}

// NewPaginationParams returns the first page at the default size.
func NewPaginationParams() PaginationParams {
	return PaginationParams{page: 1, pageSize: DefaultPageSize}
}

// ParsePagination reads page and page_size from the query string. Values
// that are missing or below 1 keep the default; page_size is capped.
func ParsePagination(r *http.Request) PaginationParams {
	params := NewPaginationParams()
	q := r.URL.Query()
	if n, ok := positiveInt(q.Get("page")); ok {
		params.page = n
	}
	if n, ok := positiveInt(q.Get("page_size")); ok {
		params.pageSize = min(n, MaxPageSize)
	}
	return params
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 1
}

// Page returns the page number.
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the page size.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Offset returns the number of rows before this page.
func (p PaginationParams) Offset() int { return (p.page - 1) * p.pageSize }

// Limit returns the number of rows on this page.
func (p PaginationParams) Limit() int { return p.pageSize }

func (p PaginationParams) totalPages(total int64) int {
	return int((total + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// PaginationMeta reports the window and the overall count.
func PaginationMeta(params PaginationParams, total int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        params.Page(),
		"page_size":   params.PageSize(),
		"total_count": total,
		"total_pages": params.totalPages(total),
	}
}

// PaginationLinks builds self, first, last, prev and next links that keep
// the request's other query parameters.
func PaginationLinks(r *http.Request, params PaginationParams, total int64) *jsonapi.Links {
	link := func(page int) string {
		q := url.Values{}
		for k, v := range r.URL.Query() {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(params.PageSize()))
		return r.URL.Path + "?" + q.Encode()
	}

	last := params.totalPages(total)
	links := &jsonapi.Links{
		Self:  link(params.Page()),
		First: link(1),
	}
	if last > 0 {
		links.Last = link(last)
	}
	if params.Page() > 1 {
		links.Prev = link(params.Page() - 1)
	}
	if params.Page() < last {
		links.Next = link(params.Page() + 1)
	}
	return links
}
