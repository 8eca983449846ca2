package engine

import (
	"fmt"
	"time"

	"moderation-service/models"
)

// MaxEscalationLevel is the ceiling for automatic escalation. Escalating a
// record already at the ceiling is a no-op on the counter but still logged.
const MaxEscalationLevel = 3

// transitions lists the legal actions from each status. Approve is always
// legal and handled separately so an admin can pre-clear content.
var transitions = map[models.ModerationStatus][]models.ModerationAction{
	models.StatusPending: {
		models.ActionReject, models.ActionFlag, models.ActionQuarantine, models.ActionEscalate,
	},
	models.StatusFlagged: {
		models.ActionReject, models.ActionQuarantine, models.ActionEscalate,
	},
	models.StatusQuarantined: {
		models.ActionReject, models.ActionRelease,
	},
	models.StatusEscalated: {
		models.ActionReject, models.ActionQuarantine, models.ActionEscalate,
	},
	models.StatusApproved: {},
	models.StatusRejected: {},
}

// Actor identifies who performed a transition and why.
type Actor struct {
	AdminID string
	Reason  string
	Notes   string
}

// TransitionResult describes the side effects a committed transition requires.
type TransitionResult struct {
	PreviousStatus models.ModerationStatus

	// ContentActive is the desired is_active state of the underlying
	// content, nil when unchanged.
	ContentActive *bool

	// ReportStatus and Resolution are applied to linked pending and
	// under-review reports. Resolution is empty when reports only move
	// status without settling.
	ReportStatus models.ReportStatus
	Resolution   string

	// EscalationCapped is set when an escalate hit the level ceiling.
	EscalationCapped bool
}

func boolPtr(b bool) *bool { return &b }

// Allowed reports whether action is legal from the given status.
func Allowed(status models.ModerationStatus, action models.ModerationAction) bool {
	if action == models.ActionApprove {
		return true
	}
	for _, a := range transitions[status] {
		if a == action {
			return true
		}
	}
	return false
}

// Transition applies a moderation action to the record in place and returns
// the side effects the caller must commit atomically with the record update.
// Returns ErrAlreadyModerated when the record already sits in the state the
// action produces, ErrInvalidTransition for anything else illegal.
func Transition(record *models.ModerationRecord, action models.ModerationAction, actor Actor) (*TransitionResult, error) {
	if !models.ValidAction(action) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAction, action)
	}

	result := &TransitionResult{PreviousStatus: record.Status}

	if !Allowed(record.Status, action) {
		if alreadyApplied(record.Status, action) {
			return nil, fmt.Errorf("%w: %s is already %s", models.ErrAlreadyModerated, record.ContentID, record.Status)
		}
		return nil, fmt.Errorf("%w: %s from %s", models.ErrInvalidTransition, action, record.Status)
	}

	now := time.Now().UTC()
	review := &models.HumanReview{
		ReviewerID: actor.AdminID,
		Decision:   string(action),
		Reason:     actor.Reason,
		Notes:      actor.Notes,
		ReviewedAt: now,
	}

	switch action {
	case models.ActionApprove, models.ActionRelease:
		record.Status = models.StatusApproved
		record.QuarantinedAt = nil
		record.QuarantinedBy = ""
		record.QuarantineReason = ""
		result.ContentActive = boolPtr(true)
		result.ReportStatus = models.ReportResolved
		result.Resolution = models.ResolutionNoViolation

	case models.ActionReject:
		record.Status = models.StatusRejected
		result.ContentActive = boolPtr(false)
		result.ReportStatus = models.ReportResolved
		result.Resolution = models.ResolutionContentRemoved

	case models.ActionFlag:
		record.Status = models.StatusFlagged
		result.ReportStatus = models.ReportUnderReview

	case models.ActionQuarantine:
		record.Status = models.StatusQuarantined
		record.QuarantinedAt = &now
		record.QuarantinedBy = actor.AdminID
		record.QuarantineReason = actor.Reason
		result.ContentActive = boolPtr(false)
		result.ReportStatus = models.ReportResolved
		result.Resolution = models.ResolutionContentRemoved

	case models.ActionEscalate:
		record.Status = models.StatusEscalated
		if record.EscalationLevel >= MaxEscalationLevel {
			result.EscalationCapped = true
		} else {
			record.EscalationLevel++
		}
		if record.EscalationLevel >= 2 && models.PriorityRank(record.Priority) < models.PriorityRank(models.PriorityHigh) {
			record.Priority = models.PriorityHigh
		}
		result.ReportStatus = models.ReportEscalated
		result.Resolution = models.ResolutionEscalated
	}

	record.HumanReview = review
	record.UpdatedAt = now

	return result, nil
}

// alreadyApplied reports whether the record is already in the terminal state
// the action would produce.
func alreadyApplied(status models.ModerationStatus, action models.ModerationAction) bool {
	switch action {
	case models.ActionReject:
		return status == models.StatusRejected
	case models.ActionQuarantine:
		return status == models.StatusQuarantined
	case models.ActionFlag:
		return status == models.StatusFlagged
	}
	return false
}
