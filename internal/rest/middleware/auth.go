package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/auth"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
)

// AuthenticateMiddleware authenticates requests with a JWT bearer token and
// puts the caller's tenant and user into the request context
func AuthenticateMiddleware(authProvider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authProvider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token",
				"request_id", types.GetRequestID(c.Request.Context()),
				"error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		ctx = types.SetTenantID(ctx, claims.TenantID)
		ctx = types.SetJWT(ctx, tokenString)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CronSecretMiddleware guards the cron endpoints with the shared X-Cron-Secret
func CronSecretMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	expected := []byte(cfg.Auth.CronSecret)

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(types.HeaderCronSecret))
		if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			logger.Warnw("rejected cron request",
				"path", c.FullPath(),
				"client_ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid cron secret"})
			c.Abort()
			return
		}
		c.Next()
	}
}
