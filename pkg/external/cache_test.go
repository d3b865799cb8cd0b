package external

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/domain"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newRedisCache(t *testing.T) (*TieredCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := NewTieredCache(domain.CacheConfig{
		RedisURL:   "redis://" + mr.Addr(),
		DefaultTTL: time.Minute,
		MaxItems:   10,
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestTieredCache_MemoryOnly(t *testing.T) {
	cache, err := NewTieredCache(domain.CacheConfig{}, quietLogger())
	require.NoError(t, err)
	assert.False(t, cache.HasRedis())
	assert.NoError(t, cache.Ping(context.Background()))

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", []string{"a", "b"}, 0))

	var got []string
	assert.True(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Delete(ctx, "k"))
	assert.False(t, cache.Get(ctx, "k", &got))
}

func TestTieredCache_RedisTier(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()
	assert.True(t, cache.HasRedis())

	studies := []domain.Study{{StudyID: "brca_tcga", Name: "Breast"}}
	require.NoError(t, cache.Set(ctx, "studies", studies, 0))
	assert.True(t, mr.Exists(keyPrefix+"studies"))

	// drop the memory tier to force a Redis read
	cache.memory.Purge()

	var got []domain.Study
	require.True(t, cache.Get(ctx, "studies", &got))
	assert.Equal(t, studies, got)
	assert.Equal(t, 1, cache.Len(), "redis hit is promoted to memory")
}

func TestTieredCache_RedisExpiry(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", 42, 10*time.Second))
	cache.memory.Purge()
	mr.FastForward(11 * time.Second)

	var got int
	assert.False(t, cache.Get(ctx, "short", &got))
}

func TestTieredCache_CorruptRedisEntry(t *testing.T) {
	cache, mr := newRedisCache(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "not json"))

	var got int
	assert.False(t, cache.Get(context.Background(), "bad", &got))
	assert.False(t, mr.Exists(keyPrefix+"bad"))
}

func TestTieredCache_RedisDownIsMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := NewTieredCacheWithClient(client, domain.CacheConfig{}, quietLogger())
	mr.Close()

	var got int
	assert.False(t, cache.Get(context.Background(), "anything", &got))
	assert.Error(t, cache.Ping(context.Background()))
}

func TestNewTieredCache_BadURL(t *testing.T) {
	_, err := NewTieredCache(domain.CacheConfig{RedisURL: "://nope"}, quietLogger())
	assert.Error(t, err)
}
