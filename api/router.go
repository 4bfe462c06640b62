// Package api serves the listing repository over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ecaytracker/storage"
	"ecaytracker/utils"
)

// NewRouter creates the Gin engine with all routes and middleware.
func NewRouter(repo storage.ListingRepository, frontendURL string, logger *utils.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.RecoveryWithWriter(logger.Writer()))

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{frontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	h := &handlers{repo: repo, logger: logger}
	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.GET("/stats", h.stats)
		api.GET("/listings", h.listings)
	}

	return r
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "[api] %s %s → %d (%v)"
		switch {
		case status >= 500:
			logger.Error(line, c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		case status >= 400:
			logger.Warn(line, c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		default:
			logger.Debug(line, c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		}
	}
}
