package v1

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
		offset     int
	}{
		{"", 1, DefaultPageSize, 0},
		{"?page=3&page_size=10", 3, 10, 20},
		{"?page=0&page_size=-5", 1, DefaultPageSize, 0},
		{"?page=x&page_size=500", 1, MaxPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := ParsePagination(httptest.NewRequest("GET", "/api/v1/pages"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page())
			assert.Equal(t, tt.size, p.PageSize())
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestPaginationLinks(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/pages?page=2&page_size=2&q=x", nil)
	params := ParsePagination(r)

	links := PaginationLinks(r, params, 5)
	assert.Equal(t, "/api/v1/pages?page=2&page_size=2&q=x", links.Self)
	assert.Equal(t, "/api/v1/pages?page=1&page_size=2&q=x", links.Prev)
	assert.Equal(t, "/api/v1/pages?page=3&page_size=2&q=x", links.Next)
	assert.Equal(t, "/api/v1/pages?page=3&page_size=2&q=x", links.Last)

	meta := *PaginationMeta(params, 5)
	assert.Equal(t, 3, meta["total_pages"])
	assert.Equal(t, int64(5), meta["total_count"])
}

func TestPaginationLinks_Empty(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/pages", nil)
	links := PaginationLinks(r, ParsePagination(r), 0)
	assert.Empty(t, links.Last)
	assert.Empty(t, links.Next)
	assert.Empty(t, links.Prev)
}
