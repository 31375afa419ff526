package middleware

import (
	"context"
	"fmt"
	"time"

	"codeduel/pkg/utils/logger"
	"codeduel/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter counts hits per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) error
}

// RateLimitPolicy caps hits per client IP and per route within a window.
// Zero maxima disable the corresponding check.
type RateLimitPolicy struct {
	Window   time.Duration `yaml:"window"`
	IPMax    int           `yaml:"ipMax"`
	RouteMax int           `yaml:"routeMax"`
}

// Enabled reports whether any limit is set.
func (p RateLimitPolicy) Enabled() bool {
	return p.IPMax > 0 || p.RouteMax > 0
}

// RejectFunc writes the response for a rejected request.
type RejectFunc func(c *gin.Context, err error)

// RateLimitMiddleware enforces per-route rate limiting. reject may be nil, in
// which case the error envelope is written.
func RateLimitMiddleware(limiter RateLimiter, routeKey string, policy RateLimitPolicy, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = response.Error
	}
	return func(c *gin.Context) {
		if limiter == nil || !policy.Enabled() {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if policy.IPMax > 0 {
			key := fmt.Sprintf("judge:rate:ip:%s:%s", c.ClientIP(), routeKey)
			if err := limiter.Allow(ctx, key, policy.IPMax, policy.Window); err != nil {
				logger.Warn(ctx, "request rejected by rate limit", zap.String("key", key), zap.Error(err))
				reject(c, err)
				c.Abort()
				return
			}
		}
		if policy.RouteMax > 0 {
			key := fmt.Sprintf("judge:rate:route:%s", routeKey)
			if err := limiter.Allow(ctx, key, policy.RouteMax, policy.Window); err != nil {
				logger.Warn(ctx, "request rejected by rate limit", zap.String("key", key), zap.Error(err))
				reject(c, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
