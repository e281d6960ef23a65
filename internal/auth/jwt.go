package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopbench/shopbench/internal/config"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

type jwtAuth struct {
	secret []byte
}

// NewJWTAuth validates HS256 tokens signed with auth.secret
func NewJWTAuth(cfg *config.Configuration) *jwtAuth {
	return &jwtAuth{
		secret: []byte(cfg.Auth.Secret),
	}
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	// every request acts on exactly one shop, there is no default tenant
	tenantID, _ := claims["tenant_id"].(string)
	if tenantID == "" {
		return nil, ierr.NewError("token missing tenant ID").
			WithHint("Token missing tenant ID").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: userID, TenantID: tenantID}, nil
}

func (a *jwtAuth) GenerateToken(userID, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
