package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/helixml/pagevec"
	"github.com/helixml/pagevec/infrastructure/api"
	"github.com/helixml/pagevec/infrastructure/api/jsonapi"
	"github.com/helixml/pagevec/infrastructure/api/v1/dto"
	"github.com/helixml/pagevec/internal/fakeprovider"
	"github.com/helixml/pagevec/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-secret-key"

func newTestClient(t *testing.T, opts ...pagevec.Option) *pagevec.Client {
	t.Helper()
	base := []pagevec.Option{
		pagevec.WithSQLite(filepath.Join(t.TempDir(), "api.db")),
		pagevec.WithEmbeddingDimension(fakeprovider.Dimension),
		pagevec.WithEmbeddingProvider(fakeprovider.NewKeywords()),
		pagevec.WithLogger(log.Discard()),
	}
	client, err := pagevec.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestHandler(t *testing.T, client *pagevec.Client, keys ...string) http.Handler {
	t.Helper()
	return api.NewAPIServer(client, keys, api.WithSearchLimit(2), api.WithVersion("test")).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func storeBody(url, title, content string) string {
	b, _ := json.Marshal(dto.StorePageRequest{Data: dto.StorePageData{
		Type: "page",
		Attributes: dto.StorePageAttributes{
			URL:      url,
			Title:    title,
			Content:  content,
			Metadata: map[string]any{"source": "test"},
		},
	}})
	return string(b)
}

func TestAPIServer_Health(t *testing.T) {
	h := newTestHandler(t, newTestClient(t))

	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Pages   int64  `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Zero(t, body.Pages)
}

func TestAPIServer_StoreGetAndList(t *testing.T) {
	h := newTestHandler(t, newTestClient(t))

	w := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://example.com/cats", "Cats", "cats are great pets"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "page", created.Data.Type)
	assert.Equal(t, "https://example.com/cats", created.Data.Attributes.URL)
	assert.True(t, created.Data.Attributes.HasEmbedding)
	assert.Empty(t, created.Data.Attributes.Embedding, "embedding is not returned by default")
	assert.Equal(t, "/api/v1/pages/"+created.Data.ID, w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/api/v1/pages/"+created.Data.ID+"?include_embedding=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, fakeprovider.Vector("cats are great pets"), got.Data.Attributes.Embedding)
	assert.Equal(t, "test", got.Data.Attributes.Metadata["source"])

	w = do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://example.com/stocks", "Stocks", "the stock market"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/pages?page_size=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.PageListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "https://example.com/stocks", list.Data[0].Attributes.URL, "newest first")
	require.NotNil(t, list.Meta)
	assert.EqualValues(t, 2, (*list.Meta)["total_count"])
	require.NotNil(t, list.Links)
	assert.NotEmpty(t, list.Links.Next)

	w = do(t, h, http.MethodGet, "/api/v1/pages?url=https://example.com/cats", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, created.Data.ID, list.Data[0].ID)
}

func TestAPIServer_StoreUpsertsByURL(t *testing.T) {
	h := newTestHandler(t, newTestClient(t))

	first := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://example.com/a", "v1", "cats"))
	second := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://example.com/a", "v2", "stocks"))
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b dto.PageResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Data.ID, b.Data.ID)
	assert.Equal(t, "v2", b.Data.Attributes.Title)
}

func TestAPIServer_Search(t *testing.T) {
	client := newTestClient(t)
	h := newTestHandler(t, client)

	for _, p := range [][3]string{
		{"https://example.com/cats", "Cats", "cats are great pets"},
		{"https://example.com/dogs", "Dogs", "dogs are loyal animals"},
		{"https://example.com/stocks", "Stocks", "the stock market and shares"},
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/pages", storeBody(p[0], p[1], p[2])).Code)
	}

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"data":{"type":"search","attributes":{"query":"cats and pets"}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Meta.Degraded)
	assert.Equal(t, 2, resp.Meta.Limit, "server default limit")
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "https://example.com/cats", resp.Data[0].Attributes.URL)
	assert.Equal(t, "https://example.com/dogs", resp.Data[1].Attributes.URL)
	assert.InDelta(t, 100, resp.Data[0].Attributes.SimilarityPercent, 0.01)
	assert.LessOrEqual(t, resp.Data[0].Attributes.Distance, resp.Data[1].Attributes.Distance)
}

func TestAPIServer_SearchEmptyStore(t *testing.T) {
	h := newTestHandler(t, newTestClient(t))

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"data":{"attributes":{"query":"anything","limit":3}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.False(t, resp.Meta.Degraded)
}

func TestAPIServer_ErrorStatuses(t *testing.T) {
	h := newTestHandler(t, newTestClient(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid limit", http.MethodPost, "/api/v1/search", `{"data":{"attributes":{"query":"x","limit":0}}}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/search", `{`, http.StatusBadRequest},
		{"empty url", http.MethodPost, "/api/v1/pages", storeBody("  ", "t", "c"), http.StatusBadRequest},
		{"unknown page", http.MethodGet, "/api/v1/pages/999", "", http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/pages/abc", "", http.StatusBadRequest},
		{"unknown url", http.MethodGet, "/api/v1/pages?url=https://missing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, jsonapi.MediaType, w.Header().Get("Content-Type"))
		})
	}
}

func TestAPIServer_ProviderFailureIsBadGateway(t *testing.T) {
	client := newTestClient(t, pagevec.WithEmbeddingProvider(fakeprovider.Failing(errors.New("upstream down"))))
	h := newTestHandler(t, client)

	w := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://example.com/a", "A", "cats"))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	n, err := client.Pages.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "nothing written when embedding fails")
}

func TestAPIServer_ReadEndpointsOpen_WriteEndpointsProtected(t *testing.T) {
	h := newTestHandler(t, newTestClient(t), testKey)

	t.Run("GET /api/v1/pages returns 200 without API key", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/pages", "").Code)
	})

	t.Run("POST /api/v1/pages without key returns 401", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://a", "a", "cats"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("POST /api/v1/pages with wrong key returns 401", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://a", "a", "cats"), "X-API-KEY", "nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("POST /api/v1/pages with valid key stores", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/v1/pages", storeBody("https://a", "a", "cats"), "X-API-KEY", testKey)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("POST /api/v1/search stays open", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/v1/search", `{"data":{"attributes":{"query":"cats"}}}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAPIServer_ClosedClient(t *testing.T) {
	client := newTestClient(t)
	h := newTestHandler(t, client)
	require.NoError(t, client.Close())

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"data":{"attributes":{"query":"cats"}}}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
