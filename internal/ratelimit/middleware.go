package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware limits requests per client IP. A Redis error fails open;
// throttling is protection, not an availability dependency.
func GinMiddleware(bucket *TokenBucket, log *zap.Logger, prefix string, rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := bucket.Allow(c.Request.Context(), prefix+":"+c.ClientIP(), rate, burst)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"type":    "rate_limited",
					"message": "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}
