package database

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"moderation-service/engine"
	"moderation-service/models"
)

func rejectedRecord() (*models.ModerationRecord, *engine.TransitionResult) {
	now := time.Now().UTC()
	record := &models.ModerationRecord{
		ContentID:   "photo-1",
		ContentType: models.ContentTypePhoto,
		Status:      models.StatusRejected,
		Priority:    models.PriorityHigh,
		HumanReview: &models.HumanReview{
			ReviewerID: "admin-1",
			Decision:   "reject",
			Reason:     "policy violation",
			ReviewedAt: now,
		},
	}
	active := false
	result := &engine.TransitionResult{
		PreviousStatus: models.StatusPending,
		ContentActive:  &active,
		ReportStatus:   models.ReportResolved,
		Resolution:     models.ResolutionContentRemoved,
	}
	return record, result
}

func TestApplyTransitionCommitsAllThreeWrites(t *testing.T) {
	it(func() {
		record, result := rejectedRecord()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE content_moderation").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE content SET is_active").
			WithArgs(false, "photo-1", "photo").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE reports").
			WithArgs("resolved", "admin-1", "content_removed", "reject", "photo-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		resolved, err := d.ApplyTransition(context.Background(), record, result, models.ActionReject)
		if err != nil {
			t.Fatalf("ApplyTransition: %v", err)
		}
		if resolved != 2 {
			t.Errorf("resolved reports = %d, want 2", resolved)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestApplyTransitionRollsBackOnReportFailure(t *testing.T) {
	it(func() {
		record, result := rejectedRecord()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE content_moderation").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE content SET is_active").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE reports").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := d.ApplyTransition(context.Background(), record, result, models.ActionReject)
		if err == nil {
			t.Fatal("expected error when report resolution fails")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestApplyTransitionMissingRecord(t *testing.T) {
	it(func() {
		record, result := rejectedRecord()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE content_moderation").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := d.ApplyTransition(context.Background(), record, result, models.ActionReject)
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestApplyTransitionFlagSkipsContentAndResolution(t *testing.T) {
	it(func() {
		record, _ := rejectedRecord()
		record.Status = models.StatusFlagged
		result := &engine.TransitionResult{
			PreviousStatus: models.StatusPending,
			ReportStatus:   models.ReportUnderReview,
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE content_moderation").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE reports").
			WithArgs("under_review", "photo-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if _, err := d.ApplyTransition(context.Background(), record, result, models.ActionFlag); err != nil {
			t.Fatalf("ApplyTransition: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpsertFromVerdictRefreshesPriorityBeforeStatus(t *testing.T) {
	it(func() {
		// MySQL applies the duplicate-key assignments left to right. If status
		// were assigned first, the priority IF would read the new status and a
		// pending record flagged by a verdict would keep its stale priority.
		mock.ExpectExec("(?s)priority = IF\\(status = 'pending', VALUES\\(priority\\), priority\\),\\s*status = IF\\(status = 'pending', VALUES\\(status\\), status\\)").
			WillReturnResult(sqlmock.NewResult(1, 1))

		signals := models.ContentSignals{
			ContentID:   "photo-9",
			ContentType: models.ContentTypePhoto,
		}
		verdict := engine.Verdict{
			Severity:   models.SeverityMedium,
			Action:     models.ActionFlag,
			Confidence: 0.8,
			Flags:      []string{models.FlagSpam},
		}
		if err := d.UpsertFromVerdict(context.Background(), signals, verdict); err != nil {
			t.Fatalf("UpsertFromVerdict: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetModerationRecordNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM content_moderation").
			WithArgs("missing", "photo").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := d.GetModerationRecord(context.Background(), "missing", models.ContentTypePhoto)
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestGetQuarantinedOrdering(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM content_moderation").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery("ORDER BY quarantined_at DESC").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"content_id", "content_type", "quarantined_at", "quarantined_by", "quarantine_reason", "escalation_level", "flags",
			}).
				AddRow("photo-2", "photo", now, "admin-1", "newer", 0, "nudity").
				AddRow("msg-1", "message", now.Add(-time.Hour), "admin-2", "older", 1, ""))

		page, err := d.GetQuarantined(context.Background(), 1, 20)
		if err != nil {
			t.Fatalf("GetQuarantined: %v", err)
		}
		if len(page.Quarantined) != 2 {
			t.Fatalf("items = %d, want 2", len(page.Quarantined))
		}
		if page.Quarantined[0].ContentID != "photo-2" {
			t.Errorf("first item = %s, want photo-2 (most recent)", page.Quarantined[0].ContentID)
		}
		if page.Pagination.TotalItems != 2 || page.Pagination.TotalPages != 1 {
			t.Errorf("pagination = %+v", page.Pagination)
		}
	})
}
