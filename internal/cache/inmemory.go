package cache

import (
	"context"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
	"github.com/shopbench/shopbench/internal/config"
)

const (
	defaultTTL      = 10 * time.Minute
	cleanupInterval = 30 * time.Minute
)

type inMemoryCache struct {
	store   *goCache.Cache
	enabled bool
}

// NewInMemoryCache builds the go-cache backed Cache. With cache.enabled off
// every Get misses and Set is dropped, deletes still apply.
func NewInMemoryCache(cfg *config.Configuration) Cache {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &inMemoryCache{
		store:   goCache.New(ttl, cleanupInterval),
		enabled: cfg.Cache.Enabled,
	}
}

func (c *inMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	return c.store.Get(key)
}

func (c *inMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration == 0 {
		expiration = goCache.DefaultExpiration
	}
	c.store.Set(key, value, expiration)
}

func (c *inMemoryCache) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}

func (c *inMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
		}
	}
}
