package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// VectorDimension is the width of the vector(N) columns below. The configured
// embedding dimension must match it; the server refuses to start otherwise.
const VectorDimension = 1536

// DocumentChunk is one overlapping slice of a source's extracted text together
// with its embedding. Chunks are immutable; reprocessing a source replaces the
// whole generation (see ChunkRepository.ReplaceForSource).
type DocumentChunk struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID       string          `gorm:"type:varchar(100);index" json:"source_id"`
	ChunkIndex     int             `json:"chunk_index"`
	Content        string          `gorm:"type:text" json:"content"`
	CharStart      int             `json:"char_start"`
	CharEnd        int             `json:"char_end"`
	Embedding      pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	EmbeddingModel string          `gorm:"type:varchar(120)" json:"embedding_model"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (c *DocumentChunk) TableName() string {
	return "document_chunks"
}
