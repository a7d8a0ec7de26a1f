package api

import (
	"net/http"

	"ainewsbot/config"

	"github.com/gin-gonic/gin"
)

// RegisterSourceRoutes registers the configured-sources listing.
func RegisterSourceRoutes(r *gin.Engine, h *handlers) {
	r.GET("/api/sources", h.handleListSources)
}

func (h *handlers) handleListSources(c *gin.Context) {
	sources := h.deps.Sources
	if sources == nil {
		sources = []config.SourceConfig{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"enabled": len(config.Enabled(sources)),
	})
}
