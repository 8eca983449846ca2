package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"moderation-service/models"
)

// QueueHandler returns one page of the ranked review queue.
func (h *Handlers) QueueHandler(c *gin.Context) {
	filter := models.QueueFilter{
		ContentType:     models.ContentType(c.Query("contentType")),
		Priority:        models.Priority(c.Query("priority")),
		ModerationLevel: -1,
	}

	if filter.ContentType != "" && !models.ValidContentType(filter.ContentType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid content type filter"})
		return
	}
	if filter.Priority != "" && models.PriorityRank(filter.Priority) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid priority filter"})
		return
	}
	if raw := c.Query("moderationLevel"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid moderation level filter"})
			return
		}
		filter.ModerationLevel = level
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.queue.GetQueue(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		log.WithError(err).Error("failed to load review queue")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"reports":    result.Reports,
		"pagination": result.Pagination,
		"stats":      result.Stats,
	})
}

// QuarantineHandler lists quarantined content, newest first.
func (h *Handlers) QuarantineHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.queue.GetQuarantineQueue(c.Request.Context(), page, pageSize)
	if err != nil {
		log.WithError(err).Error("failed to load quarantine queue")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"quarantined": result.Quarantined,
		"pagination":  result.Pagination,
	})
}

// QueueStatsHandler returns current queue counters.
func (h *Handlers) QueueStatsHandler(c *gin.Context) {
	stats, err := h.queue.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to load queue stats")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
