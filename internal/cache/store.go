package cache

import (
	"context"
	"time"
)

// Store is the small keyed-value surface used by rate limiting and other
// short-lived bookkeeping. The directory cache does not use it; directory rows
// live in their own tables with per-row TTL semantics.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
