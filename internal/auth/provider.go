package auth

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/config"
)

// Claims identifies the caller of an authenticated request
type Claims struct {
	UserID   string
	TenantID string
}

// Provider validates bearer tokens issued to shop users
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GenerateToken(userID, tenantID string, ttl time.Duration) (string, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
