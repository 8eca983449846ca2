package models

import "time"

// Content is the minimal view of a moderated entity held by the content store.
type Content struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	OwnerID     string      `json:"owner_id"`
	Text        string      `json:"text,omitempty"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ContentSignals are the raw inputs to rule evaluation for one piece of content.
type ContentSignals struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	UserID      string      `json:"user_id"`
	Text        string      `json:"text,omitempty"`
	ImageLabels []string    `json:"image_labels,omitempty"`

	// Behavior counters supplied by the caller.
	PostsInLastMinute int `json:"posts_in_last_minute"`
	ViolationsIn24h   int `json:"violations_in_24h"`
	ReportCount       int `json:"report_count"`

	// Classifier output when available. Evaluation proceeds without it.
	AIAnalysis *AIAnalysis `json:"ai_analysis,omitempty"`
}
