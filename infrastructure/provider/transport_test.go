package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, counter *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
}

func post(t *testing.T, rt http.RoundTripper, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestCachingTransport_CacheHit(t *testing.T) {
	var count atomic.Int32
	srv := countingServer(t, &count, http.StatusOK)
	defer srv.Close()

	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport, nil)
	require.NoError(t, err)

	for range 3 {
		status, body := post(t, transport, srv.URL+"/v1/embeddings", `{"input":"hello"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, `{"result":"ok"}`, body)
	}
	assert.Equal(t, int32(1), count.Load())
}

func TestCachingTransport_DifferentBodies(t *testing.T) {
	var count atomic.Int32
	srv := countingServer(t, &count, http.StatusOK)
	defer srv.Close()

	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport, nil)
	require.NoError(t, err)

	post(t, transport, srv.URL+"/v1/embeddings", `{"input":"a"}`)
	post(t, transport, srv.URL+"/v1/embeddings", `{"input":"b"}`)
	assert.Equal(t, int32(2), count.Load())
}

func TestCachingTransport_ErrorsNotCached(t *testing.T) {
	var count atomic.Int32
	srv := countingServer(t, &count, http.StatusInternalServerError)
	defer srv.Close()

	dir := t.TempDir()
	transport, err := NewCachingTransport(dir, srv.Client().Transport, nil)
	require.NoError(t, err)

	for range 2 {
		status, _ := post(t, transport, srv.URL+"/v1/embeddings", `{"input":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, status)
	}
	assert.Equal(t, int32(2), count.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCachingTransport_GetPassesThrough(t *testing.T) {
	var count atomic.Int32
	srv := countingServer(t, &count, http.StatusOK)
	defer srv.Close()

	transport, err := NewCachingTransport(t.TempDir(), srv.Client().Transport, nil)
	require.NoError(t, err)

	for range 2 {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/models", nil)
		require.NoError(t, err)
		resp, err := transport.RoundTrip(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, int32(2), count.Load())
}

func TestCachingTransport_WithOpenAIProvider(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	transport, err := NewCachingTransport(t.TempDir(), nil, nil)
	require.NoError(t, err)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Transport: transport})

	for range 2 {
		resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"cached"}))
		require.NoError(t, err)
		require.Len(t, resp.Embeddings(), 1)
		assert.Equal(t, []float64{6, 1, 0}, resp.Embeddings()[0])
	}
	assert.Equal(t, int64(1), counter.Load())
}
