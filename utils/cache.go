package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = time.Hour
	cacheOpTimeout  = 2 * time.Second
	scanRounds      = 10
)

// Cache is a Redis-backed response cache. A nil *Cache, or one built without
// a client, misses on every read and ignores writes.
type Cache struct {
	rc  *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCache(rc *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{rc: rc, ttl: ttl, log: log}
}

func (c *Cache) enabled() bool { return c != nil && c.rc != nil }

// GetBytes returns the cached value for key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// GetJSON decodes the cached value for key into dst.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.log.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetBytes stores b under key with the cache TTL.
func (c *Cache) SetBytes(ctx context.Context, key string, b []byte) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// SetJSON marshals v and stores it under key.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.SetBytes(ctx, key, b)
}

// Generation returns the counter stored at key, 0 when unset or unavailable.
// Embedding it in cache keys retires every older entry at once when bumped.
func (c *Cache) Generation(ctx context.Context, key string) int64 {
	if !c.enabled() {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	n, err := c.rc.Get(ctx, key).Int64()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("cache generation read failed", zap.String("key", key), zap.Error(err))
		}
		return 0
	}
	return n
}

// BumpGeneration increments the counter at key. The counter never expires.
func (c *Cache) BumpGeneration(ctx context.Context, key string) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Incr(ctx, key).Err(); err != nil {
		c.log.Warn("cache generation bump failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < scanRounds; i++ {
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			c.log.Warn("cache invalidate scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				c.log.Warn("cache invalidate delete failed", zap.String("prefix", prefix), zap.Error(err))
			}
		}
		if cursor == 0 {
			return
		}
	}
}
