package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tokenagg/internal/models"
)

const DefaultTTL = 30 * time.Second

// Cache stores JSON values on top of a Store. Backend failures are logged and
// reported as a miss; they never reach the caller.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

func New(store Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetJSON decodes the value at key into out and reports whether it was found.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	b, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.logger.Warn("cache value undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores v under key. ttl <= 0 uses the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		c.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) GetTokens(ctx context.Context, key string) ([]models.Token, bool) {
	var tokens []models.Token
	if !c.GetJSON(ctx, key, &tokens) {
		return nil, false
	}
	if tokens == nil {
		tokens = []models.Token{}
	}
	return tokens, true
}

// SetTokens caches tokens; an empty list is cached as well.
func (c *Cache) SetTokens(ctx context.Context, key string, tokens []models.Token, ttl time.Duration) {
	if tokens == nil {
		tokens = []models.Token{}
	}
	c.SetJSON(ctx, key, tokens, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Error("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePattern removes every key matching pattern in one batch.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) int {
	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		c.logger.Error("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Error("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}
	return len(keys)
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Cache) Close() error {
	return c.store.Close()
}
