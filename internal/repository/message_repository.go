package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/briteai/briteai-backend/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns the whole conversation oldest first. Callers that
// want only the tail slice it themselves; truncating here would let a short
// read poison the shared history cache.
func (r *MessageRepository) ListByDocumentID(documentID string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("document_id = ?", documentID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// ListRecentByDocumentID returns the newest n messages in ascending creation
// order, so the result reads oldest-to-newest.
func (r *MessageRepository) ListRecentByDocumentID(documentID string, n int) ([]model.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	var messages []model.Message
	if err := r.db.Where("document_id = ?", documentID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete messages by document failed: %w", err)
	}
	return nil
}
