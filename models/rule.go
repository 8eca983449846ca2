package models

import "time"

// RuleConditions describe when a configured moderation rule matches.
// At least one of the condition lists must be populated.
type RuleConditions struct {
	Keywords             []string `json:"keywords,omitempty"`
	ImageLabels          []string `json:"image_labels,omitempty"`
	ReportCountThreshold int      `json:"report_count_threshold,omitempty"`
}

// ModerationRule is an operator-configured rule applied alongside the built-ins.
type ModerationRule struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	ContentType ContentType      `json:"content_type"`
	Conditions  RuleConditions   `json:"conditions"`
	Action      ModerationAction `json:"action"`
	Severity    Severity         `json:"severity"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
