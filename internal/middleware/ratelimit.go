package middleware

import (
	"context"
	"time"

	"medibook-server/internal/cache"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/labstack/gommon/log"
)

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitMiddleware limits requests per client IP. A nil limiter or a
// failing one lets every request through.
func RateLimitMiddleware(limiter Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			if cache.IsUnavailable(err) {
				log.Debugf("rate limiter circuit open, allowing request: %v", err)
			} else {
				log.Warnf("rate limiter unavailable, allowing request: %v", err)
			}
			c.Next()
			return
		}
		if !allowed {
			utils.TooManyRequests(c, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
