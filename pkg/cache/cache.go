package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"botrouter/pkg/config"
	"botrouter/pkg/logger"
	"botrouter/pkg/redis"
)

var (
	Module = fx.Provide(New)

	ErrNotFound = errors.New("cache: key not found")
)

type (
	Params struct {
		fx.In
		Logger logger.Logger
		Config config.IConfig
	}

	// ICache is a string store. Entries set with a zero ttl never expire.
	ICache interface {
		Set(ctx context.Context, key, value string, ttl time.Duration) error
		Get(ctx context.Context, key string) (string, error)
		Delete(ctx context.Context, key string) error
	}

	cache struct {
		logger   logger.Logger
		expires  map[string]time.Time
		memCache map[string]string
		now      func() time.Time
		m        sync.RWMutex
	}
)

// New picks the backend named by cache.driver: "memory" (default) keeps
// entries in process, "redis" shares them between replicas.
func New(p Params) (ICache, error) {
	switch driver := p.Config.GetString("cache.driver"); driver {
	case "", "memory":
		return NewMemory(p.Logger), nil
	case "redis":
		client, err := redis.New(p.Config)
		if err != nil {
			return nil, err
		}
		p.Logger.Info(context.Background(), "using redis cache")
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidCacheDriver, driver)
	}
}

func NewMemory(l logger.Logger) ICache {
	return newCache(l, time.Now)
}

func newCache(l logger.Logger, now func() time.Time) *cache {
	return &cache{
		logger:   l,
		memCache: map[string]string{},
		expires:  map[string]time.Time{},
		now:      now,
	}
}

func (c *cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.m.Lock()
	defer c.m.Unlock()

	c.memCache[key] = value
	if ttl > 0 {
		c.expires[key] = c.now().Add(ttl)
	} else {
		delete(c.expires, key)
	}
	return nil
}

func (c *cache) Get(ctx context.Context, key string) (string, error) {
	c.m.RLock()
	value, ok := c.memCache[key]
	expiresAt, hasTTL := c.expires[key]
	c.m.RUnlock()

	if !ok {
		return "", ErrNotFound
	}
	if hasTTL && !c.now().Before(expiresAt) {
		c.m.Lock()
		// re-check, a concurrent Set may have refreshed the entry
		if exp, still := c.expires[key]; still && !c.now().Before(exp) {
			delete(c.memCache, key)
			delete(c.expires, key)
			c.logger.Debug(ctx, "cache entry expired", zap.String("key", key))
		}
		c.m.Unlock()
		return "", ErrNotFound
	}
	return value, nil
}

func (c *cache) Delete(_ context.Context, key string) error {
	c.m.Lock()
	defer c.m.Unlock()

	delete(c.memCache, key)
	delete(c.expires, key)
	return nil
}

// Len counts stored entries, including expired ones not yet evicted.
func (c *cache) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()

	return len(c.memCache)
}
