package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"moderation-service/models"
)

// ReviewHandler applies one moderation action to one piece of content.
func (h *Handlers) ReviewHandler(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.actions.Review(c.Request.Context(), req, adminFromContext(c))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"content_id": req.ContentID,
			"action":     req.Action,
		}).Error("review failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// BulkReviewHandler applies one action to a batch of content ids. Per-item
// failures come back in the errors list alongside the successes.
func (h *Handlers) BulkReviewHandler(c *gin.Context) {
	var req models.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.actions.BulkReview(c.Request.Context(), req, adminFromContext(c))
	if err != nil {
		log.WithError(err).WithField("action", req.Action).Error("bulk review rejected")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": result.Processed,
		"failed":    result.Failed,
		"results":   result.Results,
		"errors":    result.Errors,
	})
}

// ReleaseHandler releases quarantined content back to visible. Shorthand for
// a review with the release action.
func (h *Handlers) ReleaseHandler(c *gin.Context) {
	contentID := c.Param("contentId")

	var req models.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.actions.Review(c.Request.Context(), models.ReviewRequest{
		ContentID:   contentID,
		ContentType: req.ContentType,
		Action:      models.ActionRelease,
		Reason:      req.Reason,
		Notes:       req.Notes,
	}, adminFromContext(c))
	if err != nil {
		log.WithError(err).WithField("content_id", contentID).Error("release failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// GetContentModerationHandler returns the moderation record for one piece of
// content.
func (h *Handlers) GetContentModerationHandler(c *gin.Context) {
	contentType := models.ContentType(c.Param("contentType"))
	contentID := c.Param("contentId")

	if !models.ValidContentType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid content type"})
		return
	}

	record, err := h.db.GetModerationRecord(c.Request.Context(), contentID, contentType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"record":  record,
	})
}
