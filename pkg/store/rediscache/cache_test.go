package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/store/rediscache"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type countingStore struct {
	*store.Memory
	loads int
}

func (c *countingStore) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	c.loads++
	return c.Memory.Load(ctx, id)
}

func TestCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Memory: store.NewMemory()}
	require.NoError(t, backing.Memory.Save(ctx, 5, schema.Default()))

	client := newFakeRedis()
	cache := rediscache.New(backing, client, rediscache.WithTTL(time.Minute), rediscache.WithPrefix("test:"))

	first, found, err := cache.Load(ctx, 5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, backing.loads)
	assert.Contains(t, client.values, "test:5")
	assert.Equal(t, time.Minute, client.ttls["test:5"])

	second, found, err := cache.Load(ctx, 5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, backing.loads, "second load must be served from redis")
	assert.Equal(t, first, second)
}

func TestCache_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Memory: store.NewMemory()}
	client := newFakeRedis()
	cache := rediscache.New(backing, client)

	require.NoError(t, cache.Save(ctx, 3, schema.Default()))
	_, _, err := cache.Load(ctx, 3)
	require.NoError(t, err)
	assert.Contains(t, client.values, rediscache.DefaultPrefix+"3")

	updated := schema.Default()
	updated.Settings.SubmitText = "Send"
	require.NoError(t, cache.Save(ctx, 3, updated))
	assert.NotContains(t, client.values, rediscache.DefaultPrefix+"3")

	got, _, err := cache.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Send", got.Settings.SubmitText)
}

func TestCache_FallsThroughOnRedisErrors(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Memory: store.NewMemory()}
	require.NoError(t, backing.Memory.Save(ctx, 8, schema.Default()))

	client := newFakeRedis()
	client.failGet = true
	cache := rediscache.New(backing, client)

	_, found, err := cache.Load(ctx, 8)
	require.NoError(t, err)
	assert.True(t, found)

	client.failGet = false
	client.values[rediscache.DefaultPrefix+"8"] = "{broken"
	_, found, err = cache.Load(ctx, 8)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, backing.loads)

	_, found, err = cache.Load(ctx, 99)
	require.NoError(t, err)
	assert.False(t, found)
}
