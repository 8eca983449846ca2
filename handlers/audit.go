package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"moderation-service/models"
)

// AuditLogsHandler lists audit entries with filters and pagination.
func (h *Handlers) AuditLogsHandler(c *gin.Context) {
	q := models.AuditQuery{
		AdminID:      c.Query("adminId"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resourceType"),
		ResourceID:   c.Query("resourceId"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid from timestamp"})
			return
		}
		q.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid to timestamp"})
			return
		}
		q.To = &to
	}

	entries, pagination, err := h.audit.Query(c.Request.Context(), q)
	if err != nil {
		log.WithError(err).Error("failed to query audit log")
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"entries":    entries,
		"pagination": pagination,
	})
}

// SuspiciousActivityHandler surfaces admin/ip pairs with unusual recent volume.
func (h *Handlers) SuspiciousActivityHandler(c *gin.Context) {
	flagged, err := h.audit.SuspiciousActivity(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to scan for suspicious activity")
		writeError(c, err)
		return
	}
	if flagged == nil {
		flagged = []models.SuspiciousActivity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"flagged": flagged,
	})
}
