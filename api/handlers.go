package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecaytracker/models"
	"ecaytracker/storage"
	"ecaytracker/utils"
)

const healthTimeout = 3 * time.Second

type handlers struct {
	repo   storage.ListingRepository
	logger *utils.Logger
}

// health handles GET /health by pinging the repository.
func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// stats handles GET /api/stats.
func (h *handlers) stats(c *gin.Context) {
	stats, err := h.repo.FetchStats(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats, "error": nil})
}

// listings handles GET /api/listings. An empty result is [] rather than null.
func (h *handlers) listings(c *gin.Context) {
	listings, err := h.repo.FetchListings(c.Request.Context())
	if err != nil {
		h.fail(c, "listings", err)
		return
	}
	if listings == nil {
		listings = make([]models.Listing, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": listings, "error": nil})
}

func (h *handlers) fail(c *gin.Context, what string, err error) {
	h.logger.Error("[api] %s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"data": nil, "error": err.Error()})
}
