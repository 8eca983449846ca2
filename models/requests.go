package models

import "time"

// ReviewRequest is the body of POST /moderation/review.
type ReviewRequest struct {
	ContentID   string           `json:"content_id" binding:"required"`
	ContentType ContentType      `json:"content_type" binding:"required"`
	Action      ModerationAction `json:"action" binding:"required"`
	Reason      string           `json:"reason,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// BulkReviewRequest is the body of POST /moderation/bulk-review.
type BulkReviewRequest struct {
	ContentIDs  []string         `json:"content_ids" binding:"required"`
	ContentType ContentType      `json:"content_type" binding:"required"`
	Action      ModerationAction `json:"action" binding:"required"`
	Reason      string           `json:"reason,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// ReleaseRequest is the body of POST /moderation/quarantine/:contentId/release.
type ReleaseRequest struct {
	ContentType ContentType `json:"content_type" binding:"required"`
	Reason      string      `json:"reason,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// CreateRuleRequest is the body of POST /moderation/rules.
type CreateRuleRequest struct {
	Name        string           `json:"name" binding:"required"`
	ContentType ContentType      `json:"content_type" binding:"required"`
	Conditions  RuleConditions   `json:"conditions" binding:"required"`
	Action      ModerationAction `json:"action" binding:"required"`
	Severity    Severity         `json:"severity" binding:"required"`
	IsActive    bool             `json:"is_active"`
}

// QueueFilter narrows the review queue listing.
type QueueFilter struct {
	ContentType     ContentType
	Priority        Priority
	ModerationLevel int // -1 when unset
}

// SignalMessage is the AMQP payload carrying classifier output for one
// piece of content.
type SignalMessage struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	UserID      string      `json:"user_id"`
	Text        string      `json:"text,omitempty"`
	ImageLabels []string    `json:"image_labels,omitempty"`

	PostsInLastMinute int `json:"posts_in_last_minute"`
	ViolationsIn24h   int `json:"violations_in_24h"`

	Analysis *AIAnalysis `json:"analysis,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// DecisionEvent is published after every applied moderation action.
type DecisionEvent struct {
	ContentID       string           `json:"content_id"`
	ContentType     ContentType      `json:"content_type"`
	Action          ModerationAction `json:"action"`
	Status          ModerationStatus `json:"status"`
	AdminID         string           `json:"admin_id"`
	EscalationLevel int              `json:"escalation_level"`
	Timestamp       time.Time        `json:"timestamp"`
}
