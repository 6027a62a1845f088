package models

import "time"

// CacheEntry represents a small keyed value stored in the database, used by the
// rate limiter and other short-lived bookkeeping.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
