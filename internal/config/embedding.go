package config

import (
	"log"
	"sync"
	"time"
)

type EmbeddingProviderConfig struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

type EmbeddingConfig struct {
	Primary        EmbeddingProviderConfig
	Fallback       *EmbeddingProviderConfig
	BatchSize      int
	MaxRetries     int
	BaseDelay      time.Duration
	MaxConcurrency int
}

var (
	embeddingConfig *EmbeddingConfig
	embeddingOnce   sync.Once
)

func LoadEmbeddingConfig() *EmbeddingConfig {
	embeddingOnce.Do(func() {
		embeddingConfig = &EmbeddingConfig{
			Primary: EmbeddingProviderConfig{
				Provider:  envString("EMBEDDING_PROVIDER", "openai"),
				BaseURL:   envString("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
				APIKey:    envString("EMBEDDING_API_KEY", ""),
				Model:     envString("EMBEDDING_MODEL", "text-embedding-3-small"),
				Dimension: envInt("EMBEDDING_DIMENSION", 1536),
			},
			BatchSize:      envInt("EMBEDDING_BATCH_SIZE", 10),
			MaxRetries:     envInt("EMBEDDING_MAX_RETRIES", 3),
			BaseDelay:      time.Duration(envInt("EMBEDDING_BASE_DELAY_MS", 200)) * time.Millisecond,
			MaxConcurrency: envInt("EMBEDDING_MAX_CONCURRENCY", 4),
		}

		if provider := envString("FALLBACK_EMBEDDING_PROVIDER", ""); provider != "" {
			embeddingConfig.Fallback = &EmbeddingProviderConfig{
				Provider:  provider,
				BaseURL:   envString("FALLBACK_EMBEDDING_BASE_URL", ""),
				APIKey:    envString("FALLBACK_EMBEDDING_API_KEY", ""),
				Model:     envString("FALLBACK_EMBEDDING_MODEL", ""),
				Dimension: envInt("FALLBACK_EMBEDDING_DIMENSION", embeddingConfig.Primary.Dimension),
			}
		}

		log.Printf("Using embedding provider %s with model %s (%d dimensions)",
			embeddingConfig.Primary.Provider, embeddingConfig.Primary.Model, embeddingConfig.Primary.Dimension)
	})
	return embeddingConfig
}
