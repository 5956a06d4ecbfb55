package handler

import (
	"net/http"

	"geoanalytics-api/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig wires handlers and optional middleware into the engine.
type RouterConfig struct {
	Datasets    *DatasetHandler
	Geo         *GeoHandler
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
}

// SetupRouter builds the HTTP routes. /health and /swagger stay public.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	}

	datasets := api.Group("/datasets")
	{
		datasets.POST("", cfg.Datasets.Upload)
		datasets.GET("", cfg.Datasets.List)
		datasets.GET("/:id", cfg.Datasets.Get)
		datasets.DELETE("/:id", cfg.Datasets.Delete)
		datasets.GET("/:id/detect", cfg.Datasets.Detect)
		datasets.POST("/:id/validate", cfg.Geo.Validate)
		datasets.POST("/:id/analysis", cfg.Geo.Analyze)
		datasets.POST("/:id/routes", cfg.Geo.Routes)
		datasets.POST("/:id/export", cfg.Geo.Export)
	}
	api.POST("/analyze", cfg.Geo.AnalyzeInline)

	return r
}
