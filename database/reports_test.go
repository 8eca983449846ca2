package database

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"moderation-service/models"
)

func queueRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reporter_id",
		"reported_user_id", "reported_pet_id", "reported_message_id", "reported_story_id", "reported_upload_id",
		"content_type", "type", "reason", "status", "priority", "report_count", "submitted_at",
		"similar_count",
	})
}

func TestGetQueueRanking(t *testing.T) {
	it(func() {
		now := time.Now()
		upload := "upload-1"

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery("ORDER BY FIELD\\(r.priority, 'urgent', 'high', 'medium', 'low'\\), r.submitted_at ASC, r.report_count DESC").
			WillReturnRows(queueRows().
				AddRow(3, "user-3", nil, nil, nil, nil, upload, "photo", "inappropriate_content", "", "pending", "urgent", 4, now, 2).
				AddRow(1, "user-1", nil, nil, nil, nil, upload, "photo", "spam", "", "pending", "high", 1, now.Add(-time.Hour), 0).
				AddRow(2, "user-2", nil, nil, nil, nil, upload, "photo", "spam", "", "under_review", "low", 1, now.Add(-2*time.Hour), 0))

		reports, total, err := d.GetQueue(context.Background(), models.QueueFilter{ModerationLevel: -1}, 1, 20, now.Add(-7*24*time.Hour))
		if err != nil {
			t.Fatalf("GetQueue: %v", err)
		}
		if total != 3 || len(reports) != 3 {
			t.Fatalf("total = %d, len = %d, want 3/3", total, len(reports))
		}
		if reports[0].Priority != models.PriorityUrgent {
			t.Errorf("first report priority = %q, want urgent", reports[0].Priority)
		}
		if reports[0].SimilarReportsCount != 2 {
			t.Errorf("similar count = %d, want 2", reports[0].SimilarReportsCount)
		}
		if reports[0].ContentID() != upload {
			t.Errorf("content id = %q, want %q", reports[0].ContentID(), upload)
		}
	})
}

func TestGetQueueSimilarCountScopedToContentType(t *testing.T) {
	it(func() {
		// Reported ids are only unique within a content type; a user and a pet
		// sharing id "42" must not count as similar reports.
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("(?s)r2.content_type = r.content_type.*similar_count").
			WillReturnRows(queueRows())

		_, _, err := d.GetQueue(context.Background(), models.QueueFilter{ModerationLevel: -1}, 1, 20, time.Now())
		if err != nil {
			t.Fatalf("GetQueue: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetQueueFilters(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
			WithArgs("photo", "urgent").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("FROM reports r").
			WillReturnRows(queueRows())

		filter := models.QueueFilter{
			ContentType:     models.ContentTypePhoto,
			Priority:        models.PriorityUrgent,
			ModerationLevel: -1,
		}
		reports, total, err := d.GetQueue(context.Background(), filter, 1, 20, time.Now())
		if err != nil {
			t.Fatalf("GetQueue: %v", err)
		}
		if total != 0 || len(reports) != 0 {
			t.Errorf("expected empty queue, got total=%d len=%d", total, len(reports))
		}
	})
}

func TestGetQueueStats(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM reports GROUP BY status").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("pending", 5).
				AddRow("resolved", 10))
		mock.ExpectQuery("GROUP BY priority").
			WillReturnRows(sqlmock.NewRows([]string{"priority", "count"}).
				AddRow("urgent", 2).
				AddRow("low", 3))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		stats, err := d.GetQueueStats(context.Background())
		if err != nil {
			t.Fatalf("GetQueueStats: %v", err)
		}
		if stats.Total != 15 || stats.ByStatus["pending"] != 5 {
			t.Errorf("stats = %+v", stats)
		}
		if stats.ByPriority["urgent"] != 2 || stats.Overdue != 1 {
			t.Errorf("stats = %+v", stats)
		}
	})
}

func TestMarkStaleReportsDismissed(t *testing.T) {
	it(func() {
		// Quarantined content is hidden from users, so reports filed against
		// it after the quarantine are reconciled along with settled records.
		mock.ExpectExec("(?s)SET r.status = 'dismissed'.*m.status IN \\('approved', 'rejected', 'quarantined'\\)").
			WillReturnResult(sqlmock.NewResult(0, 3))

		rows, err := d.MarkStaleReportsDismissed(context.Background())
		if err != nil {
			t.Fatalf("MarkStaleReportsDismissed: %v", err)
		}
		if rows != 3 {
			t.Errorf("dismissed = %d, want 3", rows)
		}
	})
}
