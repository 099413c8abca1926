package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []datum `json:"data"`
		}{}
		for i, text := range req.Input {
			resp.Data = append(resp.Data, datum{
				Embedding: []float32{float32(len(text)), 1},
				Index:     i,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestHTTPEmbedderBatch(t *testing.T) {
	var calls atomic.Int32
	server := embeddingServer(t, &calls)
	defer server.Close()

	e, err := NewHTTPEmbedder(server.URL, "test-key", "test-model", 0)
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"ab", "abcd"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{2, 1}, vectors[0])
	assert.Equal(t, []float32{4, 1}, vectors[1])
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPEmbedderCachesByContent(t *testing.T) {
	var calls atomic.Int32
	server := embeddingServer(t, &calls)
	defer server.Close()

	e, err := NewHTTPEmbedder(server.URL, "test-key", "test-model", 0)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = e.Embed(ctx, []string{"same text"})
	require.NoError(t, err)

	vectors, err := e.Embed(ctx, []string{"same text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int32(1), calls.Load(), "identical text must be served from cache")

	// A mixed batch only sends the uncached text.
	vectors, err = e.Embed(ctx, []string{"same text", "new text"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPEmbedderRetriesOnFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,2],"index":0}]}`))
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(server.URL, "k", "m", 0)
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{1, 2}, vectors[0])
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPEmbedderGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(server.URL, "k", "m", 0)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries), calls.Load())
}
