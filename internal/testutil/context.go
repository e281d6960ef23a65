package testutil

import (
	"context"

	"github.com/shopbench/shopbench/internal/types"
)

// SetupContext returns a request context for the default test tenant and user
func SetupContext() context.Context {
	ctx := types.SetTenantID(context.Background(), types.DefaultTenantID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	return types.SetRequestID(ctx, types.GenerateUUID())
}
