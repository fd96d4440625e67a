package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shopframe/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint; the extension probes it with POST
	router.GET("/health", handler.HealthCheck)
	router.POST("/health", handler.HealthCheck)

	// Frame analysis and click tracking
	router.POST("/shop-frame", handler.ShopFrame)
	router.POST("/track", handler.Track)

	return router
}
