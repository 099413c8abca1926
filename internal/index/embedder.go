package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder turns documentation texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	defaultCacheSize = 10000

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// HTTPEmbedder calls an OpenAI-compatible /embeddings endpoint. Results are
// cached by content hash so unchanged documentation is never re-embedded.
type HTTPEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
	cache      *lru.Cache[string, []float32]
}

// NewHTTPEmbedder creates an embedder for the given OpenAI-compatible
// endpoint. dimensions may be zero to use the model default.
func NewHTTPEmbedder(baseURL, apiKey, model string, dimensions int) (*HTTPEmbedder, error) {
	cache, err := lru.New[string, []float32](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &HTTPEmbedder{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
	}, nil
}

// Embed returns one vector per input text, serving cached vectors where
// possible and batching the rest into a single API call with retries.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if v, ok := e.cache.Get(contentHash(text)); ok {
			vectors[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fetched, err := retryWithBackoff(ctx, func() ([][]float32, error) {
		return e.callAPI(ctx, missing)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(missing), err)
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(fetched), len(missing))
	}

	for j, v := range fetched {
		vectors[missingIdx[j]] = v
		e.cache.Add(contentHash(missing[j]), v)
	}

	return vectors, nil
}

func (e *HTTPEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"input": texts,
		"model": e.model,
	}
	if e.dimensions > 0 {
		reqBody["dimensions"] = e.dimensions
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// contentHash computes the SHA-256 hash of text for cache keys.
func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// retryWithBackoff executes fn with exponential backoff, giving up on
// context cancellation.
func retryWithBackoff[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}

	return zero, lastErr
}
