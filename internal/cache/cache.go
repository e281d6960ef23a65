package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopbench/shopbench/internal/types"
)

// Cache is a process local key value store. Values are shared pointers, so
// callers must treat what they Get as read only.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	// Set stores value; an expiration of 0 uses the configured TTL
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

const (
	PrefixPaymentProvider = "payment_provider:v1:"
)

// TenantKey scopes a key to the tenant carried by ctx:
// <prefix><tenant_id>[:part...]
func TenantKey(ctx context.Context, prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(types.GetTenantID(ctx))
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// GetOrLoad returns the cached T under key, or calls load and caches its
// result. Errors are never cached. An entry of another type counts as a miss.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if cached, ok := c.Get(ctx, key); ok {
		if v, ok := cached.(T); ok {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v, 0)
	return v, nil
}
