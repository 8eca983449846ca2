package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandler returns aggregated moderation stats for a trailing window.
// The period query parameter is the window length in days, default 30.
func (h *Handlers) AnalyticsHandler(c *gin.Context) {
	periodDays := 0
	if raw := c.Query("period"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid period"})
			return
		}
		periodDays = parsed
	}

	stats, err := h.analytics.GetStats(c.Request.Context(), periodDays)
	if err != nil {
		log.WithError(err).Error("failed to compute analytics")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
