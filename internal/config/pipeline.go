package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type PipelineConfig struct {
	WorkerCount       int
	QueueSize         int
	ProcessingTimeout time.Duration
	UploadDir         string
	RetentionHours    int
	MaxFileSizeMB     int64
	AllowedFileTypes  []string
	MaxPDFPages       int
	WebsiteTimeout    time.Duration
	WebsiteMaxLength  int
	ChunkSize         int
	ChunkOverlap      int
	RateLimitPerMin   int
	RateLimitBurst    int
}

var (
	pipelineConfig *PipelineConfig
	pipelineOnce   sync.Once
)

func LoadPipelineConfig() *PipelineConfig {
	pipelineOnce.Do(func() {
		pipelineConfig = &PipelineConfig{
			WorkerCount:       envInt("WORKER_COUNT", 2),
			QueueSize:         envInt("QUEUE_SIZE", 64),
			ProcessingTimeout: time.Duration(envInt("PROCESSING_TIMEOUT_SECONDS", 300)) * time.Second,
			UploadDir:         envString("UPLOAD_DIR", "./uploads"),
			RetentionHours:    envInt("UPLOAD_RETENTION_HOURS", 24),
			MaxFileSizeMB:     int64(envInt("MAX_FILE_SIZE_MB", 10)),
			AllowedFileTypes:  envList("ALLOWED_FILE_TYPES", "pdf,txt,md,docx"),
			MaxPDFPages:       envInt("MAX_PDF_PAGES", 50),
			WebsiteTimeout:    time.Duration(envInt("WEBSITE_TIMEOUT_SECONDS", 30)) * time.Second,
			WebsiteMaxLength:  envInt("WEBSITE_MAX_CONTENT_LENGTH", 100000),
			ChunkSize:         envInt("CHUNK_SIZE", 400),
			ChunkOverlap:      envInt("CHUNK_OVERLAP", 50),
			RateLimitPerMin:   envInt("RATE_LIMIT_PER_MINUTE", 60),
			RateLimitBurst:    envInt("RATE_LIMIT_BURST", 10),
		}
		if pipelineConfig.ChunkOverlap >= pipelineConfig.ChunkSize {
			log.Fatalf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
				pipelineConfig.ChunkOverlap, pipelineConfig.ChunkSize)
		}
	})
	return pipelineConfig
}

func (c *PipelineConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

func (c *PipelineConfig) IsAllowedType(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, t := range c.AllowedFileTypes {
		if t == ext {
			return true
		}
	}
	return false
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func envList(key, fallback string) []string {
	raw := envString(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
