package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/formpay/internal/observability/logger"
	"go.uber.org/zap"
)

// IntentRateLimit throttles intent creation per client IP. Limiter errors
// fail open so a redis outage does not block checkout.
func (s *Server) IntentRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.intentLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := s.intentLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("intent rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.FromContext(ctx).Warn("intent rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			s.obsMetrics.RecordIntent(ctx, "rate_limited", "")
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
