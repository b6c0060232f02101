package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-while/go-pokr/internal/logging"
)

// CachedEntry holds one value with its expiry
type CachedEntry struct {
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time
	LastUsed  time.Time
	Size      int64 // Estimated memory size
}

// MemoryCache is an in-process Cache guarded by a RWMutex
type MemoryCache struct {
	cache       map[string]*CachedEntry
	mutex       sync.RWMutex
	maxEntries  int           // Maximum number of cached values, 0 = unbounded
	cleanupTick time.Duration // How often to run cleanup
	stopCleanup chan struct{}
	stopOnce    sync.Once
	now         Clock
	cachedSize  int64        // Size of the cache in bytes
	countermux  sync.RWMutex // Mutex for counters
	hits        int64        // Cache hit counter
	misses      int64        // Cache miss counter
}

var _ Cache = (*MemoryCache)(nil)

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock replaces time.Now
func WithClock(now Clock) Option {
	return func(mc *MemoryCache) {
		if now != nil {
			mc.now = now
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept; <= 0 disables the sweeper
func WithCleanupInterval(d time.Duration) Option {
	return func(mc *MemoryCache) {
		mc.cleanupTick = d
	}
}

// NewMemoryCache creates a cache holding at most maxEntries values
func NewMemoryCache(maxEntries int, opts ...Option) *MemoryCache {
	mc := &MemoryCache{
		cache:       make(map[string]*CachedEntry),
		maxEntries:  maxEntries,
		cleanupTick: 5 * time.Minute,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(mc)
	}

	if mc.cleanupTick > 0 {
		go mc.cleanup()
	}
	return mc
}

func checkArgs(ctx context.Context, key string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("check context: %w", err)
	}
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", errors.New("key is required")
	}
	return trimmedKey, nil
}

// Get returns the value for key unless it is missing or expired
func (mc *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	key, err := checkArgs(ctx, key)
	if err != nil {
		return "", false, err
	}
	now := mc.now()

	mc.mutex.RLock()
	entry, exists := mc.cache[key]
	mc.mutex.RUnlock()

	if !exists {
		mc.countMiss()
		return "", false, nil
	}

	if !now.Before(entry.ExpiresAt) {
		mc.remove(key, entry)
		mc.countMiss()
		logging.Debug(ctx, "cache entry expired", slog.String("key", key))
		return "", false, nil
	}

	mc.countermux.Lock()
	mc.hits++
	mc.countermux.Unlock()

	mc.mutex.Lock()
	entry.LastUsed = now
	value := entry.Value
	mc.mutex.Unlock()

	return value, true, nil
}

// Set stores value for ttl; a non positive ttl is rejected
func (mc *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	key, err := checkArgs(ctx, key)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	now := mc.now()
	entry := &CachedEntry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		LastUsed:  now,
		Size:      int64(len(key) + len(value) + 64),
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if oldEntry, exists := mc.cache[key]; exists {
		mc.updateCachedSize(-oldEntry.Size)
	}
	mc.cache[key] = entry
	mc.updateCachedSize(entry.Size)

	mc.evictIfNeeded()
	return nil
}

// Delete removes key if present
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	key, err := checkArgs(ctx, key)
	if err != nil {
		return err
	}
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	if entry, exists := mc.cache[key]; exists {
		mc.updateCachedSize(-entry.Size)
		delete(mc.cache, key)
	}
	return nil
}

// remove deletes key only if it still maps to entry
func (mc *MemoryCache) remove(key string, entry *CachedEntry) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	if current, exists := mc.cache[key]; exists && current == entry {
		mc.updateCachedSize(-entry.Size)
		delete(mc.cache, key)
	}
}

func (mc *MemoryCache) countMiss() {
	mc.countermux.Lock()
	mc.misses++
	mc.countermux.Unlock()
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	SizeBytes  int64   `json:"size_bytes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// GetStats returns cache statistics
func (mc *MemoryCache) GetStats() Stats {
	mc.mutex.RLock()
	entryCount := len(mc.cache)
	mc.mutex.RUnlock()

	mc.countermux.RLock()
	defer mc.countermux.RUnlock()

	hitRate := 0.0
	if total := mc.hits + mc.misses; total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}
	return Stats{
		Entries:    entryCount,
		MaxEntries: mc.maxEntries,
		SizeBytes:  mc.cachedSize,
		Hits:       mc.hits,
		Misses:     mc.misses,
		HitRate:    hitRate,
	}
}

// updateCachedSize updates the cached size counter (thread-safe)
func (mc *MemoryCache) updateCachedSize(delta int64) {
	mc.countermux.Lock()
	mc.cachedSize += delta
	if mc.cachedSize < 0 {
		mc.cachedSize = 0
	}
	mc.countermux.Unlock()
}

// evictIfNeeded removes the least recently used entry when full (must be called with lock held)
func (mc *MemoryCache) evictIfNeeded() {
	if mc.maxEntries <= 0 || len(mc.cache) <= mc.maxEntries {
		return
	}

	var oldestKey string
	var oldestTime time.Time
	for key, entry := range mc.cache {
		if oldestKey == "" || entry.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastUsed
		}
	}

	if entry := mc.cache[oldestKey]; entry != nil {
		mc.updateCachedSize(-entry.Size)
		delete(mc.cache, oldestKey)
	}
}

// cleanup runs periodically to remove expired entries
func (mc *MemoryCache) cleanup() {
	ticker := time.NewTicker(mc.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.cleanupExpired()
		case <-mc.stopCleanup:
			return
		}
	}
}

// cleanupExpired removes expired cache entries and returns how many
func (mc *MemoryCache) cleanupExpired() int {
	now := mc.now()

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	removed := 0
	for key, entry := range mc.cache {
		if !now.Before(entry.ExpiresAt) {
			mc.updateCachedSize(-entry.Size)
			delete(mc.cache, key)
			removed++
		}
	}
	if removed > 0 {
		logging.Debug(context.Background(), "cache cleaned up expired entries", slog.Int("removed", removed))
	}
	return removed
}

// Stop shuts the cleanup goroutine down; safe to call more than once
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopCleanup) })
}
