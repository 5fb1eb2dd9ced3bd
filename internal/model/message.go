package model

import "time"

// Message is one side of a chat exchange on a document. Messages are
// immutable once created; conversation order is creation time ascending.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DocumentID    string    `gorm:"size:36;not null;index" json:"document_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	IsUserMessage bool      `gorm:"not null" json:"is_user_message"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}
