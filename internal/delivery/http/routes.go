package http

import (
	"github.com/gin-gonic/gin"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/config"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check stays outside the rate limit for probes
	router.GET("/health", handler.HealthCheck)

	limiter := NewIPRateLimiter(cfg.RateLimit.PerIP)

	v1 := router.Group("/api/v1")
	v1.Use(limiter.Middleware())
	{
		items := v1.Group("/items")
		{
			items.GET("", handler.ListItems)
			items.GET("/:id", handler.GetItem)
		}
		v1.GET("/stats", handler.Stats)
	}

	return router
}
