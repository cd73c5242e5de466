package middleware

import (
	"context"
	"strings"
	"time"

	"medibook-server/internal/config"
	"medibook-server/internal/models"
	"medibook-server/internal/policy"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/labstack/gommon/log"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxTokenID  = "tokenID"
	ctxTokenTTL = "tokenTTL"
)

// TokenChecker looks up denylisted access tokens.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware creates a middleware for JWT authentication. checker may be
// nil when no denylist is configured.
func AuthMiddleware(cfg *config.Config, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil || !claims.Role.Valid() {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if checker != nil && claims.ID != "" {
			revoked, err := checker.IsTokenRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Warnf("token denylist lookup failed: %v", err)
			} else if revoked {
				utils.Unauthorized(c, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// Set user information in context for downstream handlers
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxTokenID, claims.ID)
		c.Set(ctxTokenTTL, claims.RemainingTTL())

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "Forbidden: Access is denied.")
		c.Abort()
	}
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}

// GetCaller returns the authenticated identity set by AuthMiddleware.
func GetCaller(c *gin.Context) (policy.Caller, bool) {
	userID, ok := GetUserIDFromContext(c)
	if !ok || userID == "" {
		return policy.Caller{}, false
	}
	role, ok := GetUserRoleFromContext(c)
	if !ok {
		return policy.Caller{}, false
	}
	return policy.Caller{UserID: userID, Role: role}, true
}

// GetTokenFromContext returns the access token's ID and remaining lifetime.
func GetTokenFromContext(c *gin.Context) (string, time.Duration) {
	tokenID := c.GetString(ctxTokenID)
	ttl, _ := c.Get(ctxTokenTTL)
	d, _ := ttl.(time.Duration)
	return tokenID, d
}
