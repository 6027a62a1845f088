package models

import "time"

// WebhookEvent records a processed identity-provider webhook delivery.
// MessageID is the provider's delivery id; the unique index makes redelivered
// events idempotent.
type WebhookEvent struct {
	MessageID   string    `gorm:"primaryKey;size:64" json:"message_id"`
	EventType   string    `gorm:"size:64;not null" json:"event_type"`
	ProcessedAt time.Time `gorm:"index;not null" json:"processed_at"`
}
