package model

import "time"

// Usage event kinds.
const (
	UsageKindChatMessage = "chat_message"
)

// UsageEvent is the queue payload emitted after a completed chat exchange.
// Quota enforcement against the plan tiers happens outside the chat path.
type UsageEvent struct {
	UserID     uint      `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UsageRecord is the persisted form of a UsageEvent.
type UsageRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Kind       string    `gorm:"size:32;not null" json:"kind"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
