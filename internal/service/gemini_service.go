package service

import (
	"context"
	"fmt"
	"math"

	"github.com/pendo-cea/rag-pipeline/internal/config"
	"google.golang.org/genai"
)

// GeminiService embeds via the Gemini API. Retry and fallback live in
// EmbeddingService; this client does one call per batch and validates the
// response shape.
type GeminiService struct {
	client    *genai.Client
	model     string
	dimension int
}

func NewGeminiService(ctx context.Context, cfg config.EmbeddingProviderConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires EMBEDDING_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GeminiService{client: client, model: model, dimension: cfg.Dimension}, nil
}

func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return s.validateEmbeddingResponse(result, len(texts))
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		for j, val := range emb.Values {
			if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
				return nil, fmt.Errorf("invalid embedding value at %d[%d]: %v", i, j, val)
			}
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (s *GeminiService) ModelID() string {
	return fmt.Sprintf("gemini/%s/%d", s.model, s.dimension)
}

func (s *GeminiService) Dimension() int {
	return s.dimension
}
