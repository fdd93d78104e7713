package cache

import (
	"context"
	"errors"
	"time"

	"botrouter/pkg/redis"
)

type redisCache struct {
	client redis.Client
}

func NewRedis(client redis.Client) ICache {
	return &redisCache{client: client}
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Save(ctx, key, value, ttl)
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Find(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return "", ErrNotFound
	}
	return value, err
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}
