package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/briteai/briteai-backend/internal/model"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(record *model.UsageRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create usage record failed: %w", err)
	}
	return nil
}

// CountByUserSince counts usage records of a kind for a user from a point in
// time, which is what monthly quota checks read.
func (r *UsageRepository) CountByUserSince(userID uint, kind string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&model.UsageRecord{}).
		Where("user_id = ? AND kind = ? AND occurred_at >= ?", userID, kind, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count usage records failed: %w", err)
	}
	return count, nil
}
