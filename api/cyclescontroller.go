package api

import (
	"net/http"

	"ainewsbot/types"

	"github.com/gin-gonic/gin"
)

// RegisterCycleRoutes registers status and trigger endpoints.
func RegisterCycleRoutes(r *gin.Engine, h *handlers) {
	r.GET("/api/status", h.handleStatus)
	r.POST("/api/cycles", h.handleStartCycle)
}

func (h *handlers) handleStatus(c *gin.Context) {
	if h.deps.Status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "coordinator not configured"})
		return
	}
	status := h.deps.Status.Status()
	resp := gin.H{
		"state":       status.State,
		"in_progress": status.InProgress,
		"logs":        status.Logs,
		"last_report": status.LastReport,
	}
	if status.Error != "" {
		resp["error"] = status.Error
	}
	if h.deps.NextRun != nil {
		if next := h.deps.NextRun(); !next.IsZero() {
			resp["next_run"] = next
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleStartCycle starts a cycle in the background and returns 202, or 409 when one is running.
func (h *handlers) handleStartCycle(c *gin.Context) {
	if h.deps.Trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trigger not configured"})
		return
	}
	if !h.deps.Trigger("api") {
		c.JSON(http.StatusConflict, gin.H{"error": types.ErrCycleInProgress.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
