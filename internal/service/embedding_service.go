package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/pendo-cea/rag-pipeline/internal/config"
)

// Embedder turns a batch of texts into vectors, preserving order and length.
// One implementation per provider; the provider is resolved once at startup.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
	Dimension() int
}

// NewEmbedder builds the provider implementation named by the config.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingProviderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaService(cfg), nil
	case "openai":
		return NewOpenAIService(cfg), nil
	case "gemini":
		return NewGeminiService(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: ollama, openai, gemini)", cfg.Provider)
	}
}

// EmbeddingService wraps a primary and optional fallback provider with
// batching, retry with backoff, and a shared outbound concurrency cap so
// concurrent workers cannot stampede one provider.
type EmbeddingService struct {
	primary    Embedder
	fallback   Embedder
	batchSize  int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sem        chan struct{}
}

func NewEmbeddingService(ctx context.Context, cfg *config.EmbeddingConfig) (*EmbeddingService, error) {
	primary, err := NewEmbedder(ctx, cfg.Primary)
	if err != nil {
		return nil, err
	}

	var fallback Embedder
	if cfg.Fallback != nil {
		fallback, err = NewEmbedder(ctx, *cfg.Fallback)
		if err != nil {
			return nil, err
		}
	}

	return &EmbeddingService{
		primary:    primary,
		fallback:   fallback,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   30 * time.Second,
		sem:        make(chan struct{}, cfg.MaxConcurrency),
	}, nil
}

// EmbedTexts embeds all texts in order and returns the vectors together with
// the model identifier they were produced by. If the primary provider keeps
// failing and a fallback is configured, the whole input is re-embedded against
// the fallback so a source never ends up with mixed-model vectors.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, string, error) {
	if len(texts) == 0 {
		return nil, s.primary.ModelID(), nil
	}

	vectors, err := s.embedAll(ctx, s.primary, texts)
	if err == nil {
		return vectors, s.primary.ModelID(), nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if s.fallback == nil {
		return nil, "", err
	}

	log.Printf("Primary embedding provider failed (%v), switching to fallback %s", err, s.fallback.ModelID())
	vectors, fbErr := s.embedAll(ctx, s.fallback, texts)
	if fbErr != nil {
		return nil, "", fmt.Errorf("primary failed: %v; fallback failed: %w", err, fbErr)
	}
	return vectors, s.fallback.ModelID(), nil
}

func (s *EmbeddingService) embedAll(ctx context.Context, provider Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		// Cooperative cancellation point between batches.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := s.embedBatchWithRetry(ctx, provider, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) embedBatchWithRetry(ctx context.Context, provider Embedder, batch []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			log.Printf("Retry attempt %d/%d for %s after %v", attempt, s.maxRetries, provider.ModelID(), delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vectors, err := s.callProvider(ctx, provider, batch)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Embedding attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", s.maxRetries, lastErr)
}

func (s *EmbeddingService) callProvider(ctx context.Context, provider Embedder, batch []string) ([][]float32, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	vectors, err := provider.EmbedBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
	}
	return vectors, nil
}

func (s *EmbeddingService) calculateBackoff(attempt int) time.Duration {
	delay := s.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.maxDelay {
		delay = s.maxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(rand.Int63n(int64(jitter)+1))
	return delay
}
