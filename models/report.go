package models

import "time"

// ReportStatus is the lifecycle state of a user-submitted report.
type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportUnderReview ReportStatus = "under_review"
	ReportResolved    ReportStatus = "resolved"
	ReportEscalated   ReportStatus = "escalated"
	ReportDismissed   ReportStatus = "dismissed"
)

// Report resolutions recorded when a moderation action settles a report.
const (
	ResolutionNoViolation    = "no_violation"
	ResolutionContentRemoved = "content_removed"
	ResolutionEscalated      = "escalated"
)

// Report is a user complaint against a piece of content. Exactly one of the
// Reported* ids is populated, discriminated by ContentType.
type Report struct {
	ID                int64        `json:"id"`
	ReporterID        string       `json:"reporter_id"`
	ReportedUserID    *string      `json:"reported_user_id,omitempty"`
	ReportedPetID     *string      `json:"reported_pet_id,omitempty"`
	ReportedMessageID *string      `json:"reported_message_id,omitempty"`
	ReportedStoryID   *string      `json:"reported_story_id,omitempty"`
	ReportedUploadID  *string      `json:"reported_upload_id,omitempty"`
	ContentType       ContentType  `json:"content_type"`
	Type              string       `json:"type"`
	Reason            string       `json:"reason,omitempty"`
	Status            ReportStatus `json:"status"`
	Priority          Priority     `json:"priority"`
	ReportCount       int          `json:"report_count"`
	SubmittedAt       time.Time    `json:"submitted_at"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy        *string      `json:"resolved_by,omitempty"`
	Resolution        *string      `json:"resolution,omitempty"`
	ActionTaken       *string      `json:"action_taken,omitempty"`
}

// ContentID returns the populated reported-entity id for the report's content type.
func (r *Report) ContentID() string {
	switch {
	case r.ReportedUserID != nil:
		return *r.ReportedUserID
	case r.ReportedPetID != nil:
		return *r.ReportedPetID
	case r.ReportedMessageID != nil:
		return *r.ReportedMessageID
	case r.ReportedStoryID != nil:
		return *r.ReportedStoryID
	case r.ReportedUploadID != nil:
		return *r.ReportedUploadID
	}
	return ""
}

// EntitySummary is a compact view of a user or pet attached to queue entries.
type EntitySummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Kind        string `json:"kind"`
}

// QueuedReport is a report enriched for the review queue.
type QueuedReport struct {
	Report
	Reporter            *EntitySummary `json:"reporter,omitempty"`
	Reported            *EntitySummary `json:"reported,omitempty"`
	SimilarReportsCount int            `json:"similar_reports_count"`
	IsOverdue           bool           `json:"is_overdue"`
}

// QueueStats summarizes the review queue by status and priority.
type QueueStats struct {
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Total      int            `json:"total"`
	Overdue    int            `json:"overdue"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// QueuePage is one page of the ranked review queue.
type QueuePage struct {
	Reports    []QueuedReport `json:"reports"`
	Pagination Pagination     `json:"pagination"`
	Stats      *QueueStats    `json:"stats,omitempty"`
}

// QuarantinedItem is one entry of the global quarantine queue.
type QuarantinedItem struct {
	ContentID        string      `json:"content_id"`
	ContentType      ContentType `json:"content_type"`
	QuarantinedAt    time.Time   `json:"quarantined_at"`
	QuarantinedBy    string      `json:"quarantined_by"`
	QuarantineReason string      `json:"quarantine_reason,omitempty"`
	EscalationLevel  int         `json:"escalation_level"`
	Flags            []string    `json:"flags"`
}

// QuarantinePage is one page of the quarantine queue.
type QuarantinePage struct {
	Quarantined []QuarantinedItem `json:"quarantined"`
	Pagination  Pagination        `json:"pagination"`
}
