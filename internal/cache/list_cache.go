package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ListCache stores ordered string lists with a time-to-live.
type ListCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, values []string, ttl time.Duration)
	GetStats() CacheStats
}

// ListCacheEntry represents a cached list with metadata
type ListCacheEntry struct {
	Values    []string  `json:"values"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// HitRate returns hits as a percentage of lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type statsCounter struct {
	mu    sync.RWMutex
	stats CacheStats
}

func (c *statsCounter) hit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Hits++
}

func (c *statsCounter) miss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Misses++
}

func (c *statsCounter) set() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Sets++
}

func (c *statsCounter) snapshot() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// RedisListCache implements ListCache on Redis. Entries expire through the
// Redis TTL; the stored ExpiresAt guards against keys persisted without one.
type RedisListCache struct {
	redis  redis.Cmdable
	prefix string
	stats  statsCounter
	logger *logrus.Logger
}

// NewRedisListCache creates a new Redis-based list cache
func NewRedisListCache(client redis.Cmdable, prefix string, logger *logrus.Logger) *RedisListCache {
	if prefix == "" {
		prefix = "dss_cache:"
	}
	return &RedisListCache{redis: client, prefix: prefix, logger: logger}
}

// Get retrieves a list from Redis
func (c *RedisListCache) Get(ctx context.Context, key string) ([]string, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		c.stats.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Redis error reading cache entry")
		c.stats.miss()
		return nil, false
	}

	var entry ListCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Error deserializing cache entry")
		c.stats.miss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.stats.miss()
		return nil, false
	}

	c.stats.hit()
	return entry.Values, true
}

// Set stores a list in Redis with ttl
func (c *RedisListCache) Set(ctx context.Context, key string, values []string, ttl time.Duration) {
	now := time.Now()
	data, err := json.Marshal(ListCacheEntry{
		Values:    values,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Error serializing cache entry")
		return
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Redis error writing cache entry")
		return
	}

	c.stats.set()
	c.logger.WithFields(logrus.Fields{
		"key":   key,
		"count": len(values),
		"ttl":   ttl,
	}).Debug("Cached list")
}

// GetStats returns current cache statistics
func (c *RedisListCache) GetStats() CacheStats {
	return c.stats.snapshot()
}

type memoryEntry struct {
	values    []string
	expiresAt time.Time
}

// MemoryListCache is the in-process ListCache used when Redis is disabled.
type MemoryListCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   statsCounter
	now     func() time.Time
}

// NewMemoryListCache creates an empty in-memory cache.
func NewMemoryListCache() *MemoryListCache {
	return &MemoryListCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns a copy of the cached list while it is fresh.
func (c *MemoryListCache) Get(_ context.Context, key string) ([]string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		c.stats.miss()
		return nil, false
	}
	c.stats.hit()
	return append([]string(nil), entry.values...), true
}

// Set stores a copy of values for ttl.
func (c *MemoryListCache) Set(_ context.Context, key string, values []string, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{
		values:    append([]string(nil), values...),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	c.stats.set()
}

// GetStats returns current cache statistics
func (c *MemoryListCache) GetStats() CacheStats {
	return c.stats.snapshot()
}
