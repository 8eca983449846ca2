package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"moderation-service/models"
)

// CreateRuleHandler adds an operator-configured moderation rule.
func (h *Handlers) CreateRuleHandler(c *gin.Context) {
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	if !models.ValidContentType(req.ContentType) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid content type"})
		return
	}
	if !models.ValidAction(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid action"})
		return
	}
	if models.SeverityRank(req.Severity) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid severity"})
		return
	}
	if len(req.Conditions.Keywords) == 0 && len(req.Conditions.ImageLabels) == 0 && req.Conditions.ReportCountThreshold <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rule needs at least one condition"})
		return
	}

	rule, err := h.db.CreateRule(c.Request.Context(), &models.ModerationRule{
		Name:        req.Name,
		ContentType: req.ContentType,
		Conditions:  req.Conditions,
		Action:      req.Action,
		Severity:    req.Severity,
		IsActive:    req.IsActive,
	})
	if err != nil {
		log.WithError(err).WithField("name", req.Name).Error("failed to create rule")
		writeError(c, err)
		return
	}

	h.audit.Log(&models.AuditLogEntry{
		AdminID:      adminFromContext(c).AdminID,
		Action:       "create_rule",
		ResourceType: "moderation_rule",
		ResourceID:   strconv.FormatInt(rule.ID, 10),
		Success:      true,
		IPAddress:    c.GetString("ip_address"),
		UserAgent:    c.GetString("user_agent"),
		Details: map[string]interface{}{
			"name":     rule.Name,
			"severity": string(rule.Severity),
		},
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"rule":    rule,
	})
}

// ListRulesHandler lists configured rules. Pass active=true to only see
// rules the evaluator currently applies.
func (h *Handlers) ListRulesHandler(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	rules, err := h.db.ListRules(c.Request.Context(), activeOnly)
	if err != nil {
		log.WithError(err).Error("failed to list rules")
		writeError(c, err)
		return
	}
	if rules == nil {
		rules = []models.ModerationRule{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rules":   rules,
	})
}
