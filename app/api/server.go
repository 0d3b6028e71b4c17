package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured.
func NewServer(handler *Handler, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, version)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, version string) {
	api := r.Group("/api")
	{
		api.POST("/crawl", handler.Crawl)
		api.GET("/articles/latest", handler.GetLatestArticles)
		api.POST("/summarize", handler.Summarize)
		api.POST("/categorize", handler.Categorize)
		api.POST("/topics/generate", handler.GenerateTopic)
		api.GET("/topics/:id", handler.GetTopic)
		api.POST("/topics/:id/export", handler.ExportTopic)
	}

	r.GET("/health", handler.GetHealth)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "News Digest",
			"version":     version,
			"description": "RSS collection, enrichment and digest generation service",
			"endpoints": map[string]string{
				"crawl":      "/api/crawl (POST)",
				"articles":   "/api/articles/latest",
				"summarize":  "/api/summarize (POST)",
				"categorize": "/api/categorize (POST)",
				"generate":   "/api/topics/generate (POST)",
				"topic":      "/api/topics/<id>",
				"export":     "/api/topics/<id>/export (POST)",
				"health":     "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
