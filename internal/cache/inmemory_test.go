package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantKey(t *testing.T) {
	ctx := types.SetTenantID(context.Background(), "tenant_a")

	assert.Equal(t, "payment_provider:v1:tenant_a", TenantKey(ctx, PrefixPaymentProvider))
	assert.Equal(t, "payment_provider:v1:tenant_a:square:2", TenantKey(ctx, PrefixPaymentProvider, "square", 2))
}

func TestInMemoryCache(t *testing.T) {
	ctx := types.SetTenantID(context.Background(), "tenant_a")
	c := NewInMemoryCache(config.GetDefaultConfig())

	key := TenantKey(ctx, PrefixPaymentProvider)
	c.Set(ctx, key, "square", 0)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "square", v)

	c.DeleteByPrefix(ctx, PrefixPaymentProvider)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	ctx := types.SetTenantID(context.Background(), "tenant_a")
	c := NewInMemoryCache(config.GetDefaultConfig())
	key := TenantKey(ctx, PrefixPaymentProvider)

	loads := 0
	load := func(context.Context) (string, error) {
		loads++
		return "stripe", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, c, key, load)
		require.NoError(t, err)
		assert.Equal(t, "stripe", v)
	}
	assert.Equal(t, 1, loads)

	c.Delete(ctx, key)
	_, err := GetOrLoad(ctx, c, key, func(context.Context) (string, error) {
		return "", errors.New("credentials unreadable")
	})
	assert.Error(t, err)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "failed loads are not cached")
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg)

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	loads := 0
	for i := 0; i < 2; i++ {
		_, _ = GetOrLoad(ctx, c, "k", func(context.Context) (int, error) {
			loads++
			return loads, nil
		})
	}
	assert.Equal(t, 2, loads)
}
