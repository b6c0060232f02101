// Package cache provides the process wide key/value cache used for rendered
// fragments. Entries are invalidated only by expiry or process restart.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with per entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time; tests swap it to move past a TTL.
type Clock func() time.Time
