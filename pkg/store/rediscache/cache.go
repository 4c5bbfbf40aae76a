// Package rediscache wraps a store.Store with a Redis read-through cache.
// Saves write to the backing store first and then drop the cached blob.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
)

const (
	DefaultPrefix = "formflow:form:"
	DefaultTTL    = 10 * time.Minute
)

// Client is the subset of redis.Cmdable used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Option customises a Cache.
type Option func(*Cache)

// WithTTL sets how long cached blobs live. Zero keeps them until the next
// save.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger routes cache diagnostics to logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache implements store.Store. Cache failures never fail a request; they
// fall through to the backing store and are logged.
type Cache struct {
	next   store.Store
	client Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ store.Store = (*Cache)(nil)

// New wraps next with client.
func New(next store.Store, client Client, opts ...Option) *Cache {
	c := &Cache{
		next:   next,
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Dial parses a redis:// URL and verifies connectivity.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("rediscache: invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: redis ping failed: %w", err)
	}
	return rdb, nil
}

func (c *Cache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// Load implements store.Store.
func (c *Cache) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	if err := store.CheckID(id); err != nil {
		return schema.Schema{}, false, err
	}

	key := c.key(id)
	blob, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		form, decodeErr := store.Unmarshal(blob)
		if decodeErr == nil {
			return form, true, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(decodeErr))
		c.forget(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	form, found, err := c.next.Load(ctx, id)
	if err != nil || !found {
		return form, found, err
	}
	if encoded, encodeErr := store.Marshal(form); encodeErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return form, true, nil
}

// Save implements store.Store.
func (c *Cache) Save(ctx context.Context, id int64, form schema.Schema) error {
	if err := c.next.Save(ctx, id, form); err != nil {
		return err
	}
	c.forget(ctx, c.key(id))
	return nil
}

func (c *Cache) forget(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// IDs delegates to the backing store; ids are never cached.
func (c *Cache) IDs(ctx context.Context) ([]int64, error) {
	lister, ok := c.next.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("rediscache: backing store %T cannot list forms", c.next)
	}
	return lister.IDs(ctx)
}
