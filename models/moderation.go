package models

import "time"

// ContentType identifies which kind of content a moderation record covers.
type ContentType string

const (
	ContentTypePhoto       ContentType = "photo"
	ContentTypeMessage     ContentType = "message"
	ContentTypeProfile     ContentType = "profile"
	ContentTypeStory       ContentType = "story"
	ContentTypePet         ContentType = "pet"
	ContentTypeUpload      ContentType = "upload"
	ContentTypeUserProfile ContentType = "user_profile"
)

// ValidContentType reports whether t is one of the supported content types.
func ValidContentType(t ContentType) bool {
	switch t {
	case ContentTypePhoto, ContentTypeMessage, ContentTypeProfile,
		ContentTypeStory, ContentTypePet, ContentTypeUpload, ContentTypeUserProfile:
		return true
	}
	return false
}

// ModerationStatus is the lifecycle state of a moderation record.
type ModerationStatus string

const (
	StatusPending     ModerationStatus = "pending"
	StatusApproved    ModerationStatus = "approved"
	StatusRejected    ModerationStatus = "rejected"
	StatusFlagged     ModerationStatus = "flagged"
	StatusQuarantined ModerationStatus = "quarantined"
	StatusEscalated   ModerationStatus = "escalated"
)

// ModerationAction is an admin-performable (or automated) moderation decision.
type ModerationAction string

const (
	ActionApprove    ModerationAction = "approve"
	ActionReject     ModerationAction = "reject"
	ActionFlag       ModerationAction = "flag"
	ActionQuarantine ModerationAction = "quarantine"
	ActionEscalate   ModerationAction = "escalate"
	ActionRelease    ModerationAction = "release"
)

// ValidAction reports whether a is a known moderation action.
func ValidAction(a ModerationAction) bool {
	switch a {
	case ActionApprove, ActionReject, ActionFlag, ActionQuarantine, ActionEscalate, ActionRelease:
		return true
	}
	return false
}

// Priority of a report or moderation record.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PriorityRank maps a priority to a sortable rank, urgent highest.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Severity of a rule finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank maps a severity to a sortable rank, critical highest.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Closed vocabulary of moderation flags.
const (
	FlagInappropriateContent = "inappropriate_content"
	FlagViolence             = "violence"
	FlagNudity               = "nudity"
	FlagHarassment           = "harassment"
	FlagSpam                 = "spam"
	FlagFakeContent          = "fake_content"
	FlagCopyrightViolation   = "copyright_violation"
	FlagHateSpeech           = "hate_speech"
	FlagAdultContent         = "adult_content"
	FlagOther                = "other"
)

// KnownFlags is the closed set of flag labels a record may carry.
var KnownFlags = map[string]bool{
	FlagInappropriateContent: true,
	FlagViolence:             true,
	FlagNudity:               true,
	FlagHarassment:           true,
	FlagSpam:                 true,
	FlagFakeContent:          true,
	FlagCopyrightViolation:   true,
	FlagHateSpeech:           true,
	FlagAdultContent:         true,
	FlagOther:                true,
}

// NormalizeFlag maps an arbitrary label into the closed flag vocabulary.
func NormalizeFlag(label string) string {
	if KnownFlags[label] {
		return label
	}
	return FlagOther
}

// AIAnalysis carries the external classifier's verdict on a piece of content.
// Read-only to this service.
type AIAnalysis struct {
	Confidence    float64    `json:"confidence"`
	Flags         []string   `json:"flags"`
	Sentiment     string     `json:"sentiment,omitempty"`
	ToxicityScore float64    `json:"toxicity_score"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// HumanReview records the admin decision applied to a record.
type HumanReview struct {
	ReviewerID string    `json:"reviewer_id"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// ModerationRecord is the moderation state for one (contentID, contentType) pair.
type ModerationRecord struct {
	ID                    int64            `json:"id"`
	ContentID             string           `json:"content_id"`
	ContentType           ContentType      `json:"content_type"`
	Status                ModerationStatus `json:"status"`
	AIAnalysis            *AIAnalysis      `json:"ai_analysis,omitempty"`
	HumanReview           *HumanReview     `json:"human_review,omitempty"`
	Flags                 []string         `json:"flags"`
	Confidence            float64          `json:"confidence"`
	Priority              Priority         `json:"priority"`
	EscalationLevel       int              `json:"escalation_level"`
	AutoModerationEnabled bool             `json:"auto_moderation_enabled"`
	QuarantinedAt         *time.Time       `json:"quarantined_at,omitempty"`
	QuarantinedBy         string           `json:"quarantined_by,omitempty"`
	QuarantineReason      string           `json:"quarantine_reason,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ModerationResult is the outcome of a single review action.
type ModerationResult struct {
	ContentID       string           `json:"content_id"`
	ContentType     ContentType      `json:"content_type"`
	Action          ModerationAction `json:"action"`
	Status          ModerationStatus `json:"status"`
	EscalationLevel int              `json:"escalation_level"`
	ReportsResolved int64            `json:"reports_resolved"`
}

// BulkItemError describes one failed item of a bulk review.
type BulkItemError struct {
	ContentID string `json:"content_id"`
	Error     string `json:"error"`
}

// BulkReviewResult aggregates per-item outcomes of a bulk review.
type BulkReviewResult struct {
	Results   []ModerationResult `json:"results"`
	Errors    []BulkItemError    `json:"errors"`
	Processed int                `json:"processed"`
	Failed    int                `json:"failed"`
}
