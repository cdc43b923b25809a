package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pendo-cea/rag-pipeline/internal/config"
)

// OpenAIService embeds against any OpenAI-compatible /embeddings endpoint,
// selected by base URL.
type OpenAIService struct {
	client    *resty.Client
	model     string
	dimension int
}

func NewOpenAIService(cfg config.EmbeddingProviderConfig) *OpenAIService {
	client := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &OpenAIService{
		client:    client,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

func (s *OpenAIService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out openAIEmbedResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(openAIEmbedRequest{Model: s.model, Input: texts}).
		SetResult(&out).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Data))
	}

	// Responses may arrive out of order; the index field is authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("invalid embedding index: %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (s *OpenAIService) ModelID() string {
	return fmt.Sprintf("openai/%s/%d", s.model, s.dimension)
}

func (s *OpenAIService) Dimension() int {
	return s.dimension
}
