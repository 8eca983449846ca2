package engine

import (
	"errors"
	"testing"
	"time"

	"moderation-service/models"
)

func pendingRecord() *models.ModerationRecord {
	return &models.ModerationRecord{
		ContentID:   "c1",
		ContentType: models.ContentTypePhoto,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    models.ModerationStatus
		action  models.ModerationAction
		wantErr error
	}{
		{models.StatusPending, models.ActionApprove, nil},
		{models.StatusPending, models.ActionReject, nil},
		{models.StatusPending, models.ActionFlag, nil},
		{models.StatusPending, models.ActionQuarantine, nil},
		{models.StatusPending, models.ActionEscalate, nil},
		{models.StatusPending, models.ActionRelease, models.ErrInvalidTransition},

		{models.StatusFlagged, models.ActionApprove, nil},
		{models.StatusFlagged, models.ActionQuarantine, nil},
		{models.StatusFlagged, models.ActionFlag, models.ErrAlreadyModerated},

		{models.StatusQuarantined, models.ActionApprove, nil},
		{models.StatusQuarantined, models.ActionRelease, nil},
		{models.StatusQuarantined, models.ActionReject, nil},
		{models.StatusQuarantined, models.ActionQuarantine, models.ErrAlreadyModerated},
		{models.StatusQuarantined, models.ActionEscalate, models.ErrInvalidTransition},

		{models.StatusEscalated, models.ActionApprove, nil},
		{models.StatusEscalated, models.ActionReject, nil},
		{models.StatusEscalated, models.ActionQuarantine, nil},
		{models.StatusEscalated, models.ActionEscalate, nil},
		{models.StatusEscalated, models.ActionFlag, models.ErrInvalidTransition},

		// Approve is always legal, even from terminal states.
		{models.StatusApproved, models.ActionApprove, nil},
		{models.StatusRejected, models.ActionApprove, nil},
		{models.StatusRejected, models.ActionReject, models.ErrAlreadyModerated},
	}

	for _, tt := range tests {
		record := pendingRecord()
		record.Status = tt.from
		_, err := Transition(record, tt.action, Actor{AdminID: "admin-1"})
		if tt.wantErr == nil && err != nil {
			t.Errorf("%s from %s: unexpected error %v", tt.action, tt.from, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s from %s: error = %v, want %v", tt.action, tt.from, err, tt.wantErr)
		}
	}
}

func TestTransitionUnknownAction(t *testing.T) {
	_, err := Transition(pendingRecord(), "obliterate", Actor{AdminID: "admin-1"})
	if !errors.Is(err, models.ErrInvalidAction) {
		t.Fatalf("error = %v, want ErrInvalidAction", err)
	}
}

func TestRejectDeactivatesContent(t *testing.T) {
	record := pendingRecord()
	result, err := Transition(record, models.ActionReject, Actor{AdminID: "admin-1", Reason: "policy violation"})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusRejected {
		t.Errorf("status = %q, want rejected", record.Status)
	}
	if result.ContentActive == nil || *result.ContentActive {
		t.Error("reject must deactivate content")
	}
	if result.Resolution != models.ResolutionContentRemoved {
		t.Errorf("resolution = %q, want content_removed", result.Resolution)
	}
	if record.HumanReview == nil || record.HumanReview.ReviewerID != "admin-1" {
		t.Error("human review not recorded")
	}
}

func TestQuarantineAndRelease(t *testing.T) {
	record := pendingRecord()
	result, err := Transition(record, models.ActionQuarantine, Actor{AdminID: "admin-1", Reason: "suspicious photo"})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusQuarantined {
		t.Errorf("status = %q, want quarantined", record.Status)
	}
	if result.ContentActive == nil || *result.ContentActive {
		t.Error("quarantine must deactivate content")
	}
	if record.QuarantinedAt == nil || record.QuarantinedBy != "admin-1" || record.QuarantineReason != "suspicious photo" {
		t.Errorf("quarantine fields not set: %+v", record)
	}

	result, err = Transition(record, models.ActionRelease, Actor{AdminID: "admin-2"})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusApproved {
		t.Errorf("status after release = %q, want approved", record.Status)
	}
	if result.ContentActive == nil || !*result.ContentActive {
		t.Error("release must reactivate content")
	}
	if record.QuarantinedAt != nil || record.QuarantinedBy != "" || record.QuarantineReason != "" {
		t.Errorf("quarantine fields not cleared: %+v", record)
	}
	if result.Resolution != models.ResolutionNoViolation {
		t.Errorf("resolution = %q, want no_violation", result.Resolution)
	}
}

func TestEscalationCapped(t *testing.T) {
	record := pendingRecord()

	for i := 1; i <= 5; i++ {
		result, err := Transition(record, models.ActionEscalate, Actor{AdminID: "admin-1"})
		if err != nil {
			t.Fatalf("escalate %d: %v", i, err)
		}
		wantLevel := i
		if wantLevel > MaxEscalationLevel {
			wantLevel = MaxEscalationLevel
		}
		if record.EscalationLevel != wantLevel {
			t.Errorf("escalate %d: level = %d, want %d", i, record.EscalationLevel, wantLevel)
		}
		if i > MaxEscalationLevel && !result.EscalationCapped {
			t.Errorf("escalate %d: expected capped result", i)
		}
	}

	if record.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want high at escalation level >= 2", record.Priority)
	}
}

func TestEscalationKeepsUrgentPriority(t *testing.T) {
	record := pendingRecord()
	record.Priority = models.PriorityUrgent
	record.EscalationLevel = 2

	if _, err := Transition(record, models.ActionEscalate, Actor{AdminID: "admin-1"}); err != nil {
		t.Fatal(err)
	}
	if record.Priority != models.PriorityUrgent {
		t.Errorf("priority downgraded to %q, urgent must be kept", record.Priority)
	}
}

func TestApproveDoesNotTouchEscalationLevel(t *testing.T) {
	record := pendingRecord()
	record.Status = models.StatusEscalated
	record.EscalationLevel = 2

	before := time.Now()
	result, err := Transition(record, models.ActionApprove, Actor{AdminID: "admin-1"})
	if err != nil {
		t.Fatal(err)
	}
	if record.EscalationLevel != 2 {
		t.Errorf("approve changed escalation level to %d", record.EscalationLevel)
	}
	if result.PreviousStatus != models.StatusEscalated {
		t.Errorf("previous status = %q, want escalated", result.PreviousStatus)
	}
	if record.HumanReview.ReviewedAt.Before(before.Add(-time.Second)) {
		t.Error("reviewed_at not set")
	}
}

func TestFlagMovesReportsToUnderReview(t *testing.T) {
	record := pendingRecord()
	result, err := Transition(record, models.ActionFlag, Actor{AdminID: "admin-1"})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != models.StatusFlagged {
		t.Errorf("status = %q, want flagged", record.Status)
	}
	if result.ReportStatus != models.ReportUnderReview {
		t.Errorf("report status = %q, want under_review", result.ReportStatus)
	}
	if result.Resolution != "" {
		t.Errorf("flag must not settle reports, resolution = %q", result.Resolution)
	}
	if result.ContentActive != nil {
		t.Error("flag must not touch content activation")
	}
}
