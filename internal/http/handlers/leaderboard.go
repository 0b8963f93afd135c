package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the stats over all finished games
func (h *Handler) GetLeaderboard(c *gin.Context) {
	stats, err := h.Stats.Leaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
