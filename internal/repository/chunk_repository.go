package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/briteai/briteai-backend/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create document chunks failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByDocumentID(documentID string) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	if err := r.db.Where("document_id = ?", documentID).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list document chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete document chunks failed: %w", err)
	}
	return nil
}
