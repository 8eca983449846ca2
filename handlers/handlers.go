package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"moderation-service/database"
	"moderation-service/models"
	"moderation-service/services"
	ws "moderation-service/websocket"
)

// Handlers holds the HTTP handlers for the moderation service
type Handlers struct {
	actions   *services.ActionService
	queue     *services.QueueService
	audit     *services.AuditService
	analytics *services.AnalyticsService
	db        *database.Database
	hub       *ws.Hub
}

// NewHandlers creates a new handlers instance
func NewHandlers(actions *services.ActionService, queue *services.QueueService, audit *services.AuditService, analytics *services.AnalyticsService, db *database.Database, hub *ws.Hub) *Handlers {
	return &Handlers{
		actions:   actions,
		queue:     queue,
		audit:     audit,
		analytics: analytics,
		db:        db,
		hub:       hub,
	}
}

// HealthHandler returns service health
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "moderation-service",
	})
}

// adminFromContext reads the acting admin set by the auth middleware.
func adminFromContext(c *gin.Context) services.AdminContext {
	return services.AdminContext{
		AdminID:   c.GetString("admin_id"),
		IPAddress: c.GetString("ip_address"),
		UserAgent: c.GetString("user_agent"),
	}
}

// writeError maps service errors to HTTP responses. Storage errors stay
// behind a generic message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Content not found"})
	case errors.Is(err, models.ErrInvalidContentType), errors.Is(err, models.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, models.ErrAlreadyModerated):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Content already moderated"})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Action not allowed from current status"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}
