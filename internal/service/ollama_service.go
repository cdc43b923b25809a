package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pendo-cea/rag-pipeline/internal/config"
)

// OllamaService embeds against a local Ollama server's /api/embed endpoint.
type OllamaService struct {
	client    *resty.Client
	model     string
	dimension int
}

func NewOllamaService(cfg config.EmbeddingProviderConfig) *OllamaService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaService{
		client:    resty.New().SetBaseURL(baseURL),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

func (s *OllamaService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out ollamaEmbedResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbedRequest{Model: s.model, Input: texts}).
		SetResult(&out).
		Post("/api/embed")
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return out.Embeddings, nil
}

func (s *OllamaService) ModelID() string {
	return fmt.Sprintf("ollama/%s/%d", s.model, s.dimension)
}

func (s *OllamaService) Dimension() int {
	return s.dimension
}
