package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxTenantID      ContextKey = "ctx_tenant_id"
	CtxUserID        ContextKey = "ctx_user_id"
	CtxJWT           ContextKey = "ctx_jwt"
	CtxDBTransaction ContextKey = "ctx_db_transaction"

	// Identity of local development tokens and tests
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
	DefaultUserID   = "00000000-0000-0000-0000-000000000000"

	// SystemUserID attributes writes made by the billing scheduler and webhooks
	SystemUserID = "system"
)

func stringValue(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetTenantID returns the tenant every repository query is scoped to, or ""
func GetTenantID(ctx context.Context) string { return stringValue(ctx, CtxTenantID) }

func GetUserID(ctx context.Context) string { return stringValue(ctx, CtxUserID) }
func GetRequestID(ctx context.Context) string { return stringValue(ctx, CtxRequestID) }
func GetJWT(ctx context.Context) string { return stringValue(ctx, CtxJWT) }

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func SetJWT(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CtxJWT, token)
}

// WithSystemTenant returns a context acting as the system user on behalf of tenantID.
// Used by the billing run and webhook reconciliation, which have no request user.
func WithSystemTenant(ctx context.Context, tenantID string) context.Context {
	return SetUserID(SetTenantID(ctx, tenantID), SystemUserID)
}
