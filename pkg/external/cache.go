package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/metrics"
)

const keyPrefix = "cbioquery:"

// TieredCache keeps JSON-encoded API responses in an in-process LRU (tier 1)
// in front of an optional Redis instance (tier 2).
type TieredCache struct {
	memory     *expirable.LRU[string, []byte]
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *logrus.Logger
}

// CachedValue wraps a cached payload with metadata
type CachedValue struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewTieredCache creates the memory tier and, when config.RedisURL is set,
// connects the Redis tier.
func NewTieredCache(config domain.CacheConfig, logger *logrus.Logger) (*TieredCache, error) {
	if config.RedisURL == "" {
		return newTieredCache(nil, config, logger), nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newTieredCache(client, config, logger), nil
}

// NewTieredCacheWithClient uses an existing Redis client for tier 2. client
// may be nil.
func NewTieredCacheWithClient(client *redis.Client, config domain.CacheConfig, logger *logrus.Logger) *TieredCache {
	return newTieredCache(client, config, logger)
}

func newTieredCache(client *redis.Client, config domain.CacheConfig, logger *logrus.Logger) *TieredCache {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = time.Hour
	}
	if config.MaxItems == 0 {
		config.MaxItems = 1000
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TieredCache{
		memory:     expirable.NewLRU[string, []byte](config.MaxItems, nil, config.DefaultTTL),
		redis:      client,
		defaultTTL: config.DefaultTTL,
		logger:     logger,
	}
}

// HasRedis reports whether the Redis tier is configured.
func (c *TieredCache) HasRedis() bool { return c.redis != nil }

// Get decodes the cached value for key into dest. A Redis hit is promoted to
// the memory tier. Redis errors count as misses.
func (c *TieredCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if data, ok := c.memory.Get(key); ok {
		if err := json.Unmarshal(data, dest); err == nil {
			metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
			return true
		}
		c.memory.Remove(key)
	}
	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	if c.redis == nil {
		return false
	}

	val, err := c.redis.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("redis cache read failed")
		}
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return false
	}

	var cached CachedValue
	if err := json.Unmarshal(val, &cached); err != nil || time.Now().After(cached.ExpiresAt) {
		// corrupted or stale
		c.redis.Del(ctx, keyPrefix+key)
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return false
	}
	if err := json.Unmarshal(cached.Data, dest); err != nil {
		c.redis.Del(ctx, keyPrefix+key)
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	c.memory.Add(key, cached.Data)
	return true
}

// Set stores value in both tiers. ttl 0 means the default TTL; the memory
// tier always uses the default.
func (c *TieredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	c.memory.Add(key, data)

	if c.redis == nil {
		return nil
	}

	now := time.Now()
	payload, err := json.Marshal(CachedValue{Data: data, CachedAt: now, ExpiresAt: now.Add(ttl)})
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}
	return c.redis.Set(ctx, keyPrefix+key, payload, ttl).Err()
}

// Delete removes key from both tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	c.memory.Remove(key)
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, keyPrefix+key).Err()
}

// Len returns the number of entries in the memory tier.
func (c *TieredCache) Len() int { return c.memory.Len() }

// Ping checks the Redis tier. Without Redis it always succeeds.
func (c *TieredCache) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *TieredCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
