package repository

import (
	"fmt"

	"github.com/pendo-cea/rag-pipeline/internal/model"
	"gorm.io/gorm"
)

// ChunkRepository is the only writer of document_chunks.
type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db}
}

// CheckModelConsistency rejects a batch that mixes embedding models or whose
// vectors disagree with the declared dimension. Run before any write so a bad
// batch never touches the store.
func CheckModelConsistency(chunks []model.DocumentChunk, dimension int) error {
	if len(chunks) == 0 {
		return nil
	}
	modelID := chunks[0].EmbeddingModel
	for i, c := range chunks {
		if c.EmbeddingModel != modelID {
			return fmt.Errorf("mixed embedding models under one source: %q and %q", modelID, c.EmbeddingModel)
		}
		if got := len(c.Embedding.Slice()); got != dimension {
			return fmt.Errorf("chunk %d has dimension %d, expected %d", i, got, dimension)
		}
	}
	return nil
}

// ReplaceForSource atomically supersedes the prior chunk generation for a
// source: delete and insert run in one transaction, so a failed write leaves
// the previous generation untouched.
func (r *ChunkRepository) ReplaceForSource(sourceID string, chunks []model.DocumentChunk, dimension int) error {
	if err := CheckModelConsistency(chunks, dimension); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

func (r *ChunkRepository) ListBySource(sourceID string) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	err := r.db.Where("source_id = ?", sourceID).Order("chunk_index ASC").Find(&chunks).Error
	return chunks, err
}

func (r *ChunkRepository) CountBySource(sourceID string) (int64, error) {
	var n int64
	err := r.db.Model(&model.DocumentChunk{}).Where("source_id = ?", sourceID).Count(&n).Error
	return n, err
}
