package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/producelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/products/search", handler.SearchProducts)
		v1.POST("/answers", handler.Answer)

		users := v1.Group("/users/:userId")
		{
			users.GET("/preferences", handler.GetPreferences)
			users.PATCH("/preferences", handler.UpdatePreferences)
			users.GET("/summaries", handler.RecentSummaries)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/reload", handler.Reload)
		}
	}

	return router
}
