package model

import "time"

// Document is an uploaded file a user can chat with. Its ID doubles as the
// namespace in the vector store, so retrieval is always scoped to one document.
type Document struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	PageCount int       `gorm:"not null;default:0" json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}
