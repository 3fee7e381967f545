package api

import (
	"github.com/kristianfreeman/aii/internal/config"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, cfg *config.MiddlewareConfig) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/healthz", h.Healthz)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	if cfg.RateLimiter.Enabled {
		apiV1.Use(RateLimitMiddleware(&cfg.RateLimiter))
	}
	{
		apiV1.POST("/chat", h.Chat)

		facts := apiV1.Group("/facts")
		{
			facts.GET("", h.ListFacts)
			facts.POST("", h.AddFact)
			facts.DELETE("", h.RemoveFact)
			facts.POST("/extract", h.ExtractFacts)
		}
	}

	return r
}
