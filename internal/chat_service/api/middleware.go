package api

import (
	"net/http"

	"github.com/kristianfreeman/aii/internal/config"
	"github.com/kristianfreeman/aii/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 创建一个 Gin 中间件，使用令牌桶算法对请求进行限流。
func RateLimitMiddleware(cfg *config.RateLimiterConfig) gin.HandlerFunc {
	var limiter ratelimiter.RateLimiter = ratelimiter.NewTokenBucket(cfg.TokenBucket.Rate, cfg.TokenBucket.Capacity)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
