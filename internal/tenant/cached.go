package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// cacheKeyPrefix namespaces tenant entries in Redis
const cacheKeyPrefix = "portal:tenant:host:"

// missMarker records a host known to have no binding
const missMarker = "!"

// redisStore is the subset of *redis.Client the cache needs
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedResolver is a Redis read-through cache in front of another Resolver.
// Misses are cached too. Redis failures fall back to the inner resolver.
type CachedResolver struct {
	inner  Resolver
	rdb    redisStore
	ttl    time.Duration
	logger *logrus.Entry
}

// NewCachedResolver wraps inner with a Redis cache
func NewCachedResolver(inner Resolver, rdb redisStore, ttl time.Duration, logger *logrus.Entry) *CachedResolver {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CachedResolver{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.WithField("component", "tenant-cache"),
	}
}

// ResolveTemplateForHost implements Resolver
func (c *CachedResolver) ResolveTemplateForHost(ctx context.Context, host string) (string, error) {
	host = NormalizeHost(host)
	key := cacheKeyPrefix + host

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && cached == missMarker:
		return "", ErrNotFound
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("host", host).Warn("Tenant cache read failed")
	}

	tpl, err := c.inner.ResolveTemplateForHost(ctx, host)
	switch {
	case err == nil:
		c.store(ctx, key, tpl)
	case errors.Is(err, ErrNotFound):
		c.store(ctx, key, missMarker)
	}
	return tpl, err
}

func (c *CachedResolver) store(ctx context.Context, key, value string) {
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Tenant cache write failed")
	}
}
