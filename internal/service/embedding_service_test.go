package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pendo-cea/rag-pipeline/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves /embeddings, returning a vector whose first component
// encodes the input's batch position so ordering can be asserted.
func fakeOpenAI(t *testing.T, dim int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(req.Input))
		for i, text := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(len(text))
			data[i] = datum{Embedding: vec, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data, "model": req.Model})
	}))
}

func failingServer(calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
}

func newService(t *testing.T, primaryURL string, fallbackURL string) *EmbeddingService {
	t.Helper()
	cfg := &config.EmbeddingConfig{
		Primary: config.EmbeddingProviderConfig{
			Provider: "openai", BaseURL: primaryURL, Model: "text-embedding-3-small", Dimension: 8,
		},
		BatchSize:      2,
		MaxRetries:     1,
		BaseDelay:      time.Millisecond,
		MaxConcurrency: 2,
	}
	if fallbackURL != "" {
		cfg.Fallback = &config.EmbeddingProviderConfig{
			Provider: "openai", BaseURL: fallbackURL, Model: "nomic-embed-text", Dimension: 8,
		}
	}
	svc, err := NewEmbeddingService(context.Background(), cfg)
	require.NoError(t, err)
	return svc
}

func TestEmbedTextsPreservesOrderAcrossBatches(t *testing.T) {
	srv := fakeOpenAI(t, 8, nil)
	defer srv.Close()

	svc := newService(t, srv.URL, "")
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vectors, modelID, err := svc.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, "openai/text-embedding-3-small/8", modelID)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
}

func TestEmbedTextsFallsBackOnPrimaryFailure(t *testing.T) {
	var primaryCalls atomic.Int32
	primary := failingServer(&primaryCalls)
	defer primary.Close()
	fallback := fakeOpenAI(t, 8, nil)
	defer fallback.Close()

	svc := newService(t, primary.URL, fallback.URL)
	vectors, modelID, err := svc.EmbedTexts(context.Background(), []string{"x", "y", "z"})

	require.NoError(t, err)
	assert.Equal(t, "openai/nomic-embed-text/8", modelID, "vectors must carry the fallback's model identifier")
	assert.Len(t, vectors, 3)
	assert.Equal(t, int32(2), primaryCalls.Load(), "primary tried maxRetries+1 times before failover")
}

func TestEmbedTextsFailsWhenBothProvidersFail(t *testing.T) {
	var a, b atomic.Int32
	primary := failingServer(&a)
	defer primary.Close()
	fallback := failingServer(&b)
	defer fallback.Close()

	svc := newService(t, primary.URL, fallback.URL)
	_, _, err := svc.EmbedTexts(context.Background(), []string{"x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback failed")
	assert.GreaterOrEqual(t, a.Load(), int32(2))
	assert.GreaterOrEqual(t, b.Load(), int32(2))
}

func TestEmbedTextsNoFallbackConfigured(t *testing.T) {
	var calls atomic.Int32
	primary := failingServer(&calls)
	defer primary.Close()

	svc := newService(t, primary.URL, "")
	_, _, err := svc.EmbedTexts(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestEmbedTextsHonorsCancellationBetweenBatches(t *testing.T) {
	srv := fakeOpenAI(t, 8, nil)
	defer srv.Close()

	svc := newService(t, srv.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.EmbedTexts(ctx, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	svc := newService(t, "http://localhost:1", "")
	vectors, modelID, err := svc.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.NotEmpty(t, modelID)
}

func TestNewEmbedderRejectsUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.EmbeddingProviderConfig{Provider: "bedrock"})
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("unsupported embedding provider: %s (supported: ollama, openai, gemini)", "bedrock"), err.Error())
}
