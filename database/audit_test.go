package database

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"moderation-service/models"
)

func TestInsertAuditEntry(t *testing.T) {
	it(func() {
		testCases := []struct {
			name    string
			entry   *models.AuditLogEntry
			details interface{}
		}{
			{
				name: "with details",
				entry: &models.AuditLogEntry{
					AdminID:      "admin-1",
					Action:       "moderate_photo",
					ResourceType: "photo",
					ResourceID:   "photo-1",
					Details:      map[string]interface{}{"reason": "policy violation"},
					Success:      true,
					IPAddress:    "10.0.0.1",
					UserAgent:    "console/1.0",
				},
			},
			{
				name: "without details",
				entry: &models.AuditLogEntry{
					AdminID:      "admin-2",
					Action:       "bulk_moderate",
					ResourceType: "photo",
					ResourceID:   "batch",
					Success:      false,
				},
			},
		}

		for _, tc := range testCases {
			mock.ExpectExec("INSERT INTO audit_log").
				WillReturnResult(sqlmock.NewResult(1, 1))
			if err := d.InsertAuditEntry(context.Background(), tc.entry); err != nil {
				t.Errorf("%s: InsertAuditEntry: %v", tc.name, err)
			}
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestQueryAuditLogFilters(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_log").
			WithArgs("admin-1", "moderate_photo").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("ORDER BY ts DESC, id DESC").
			WithArgs("admin-1", "moderate_photo", 20, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "admin_id", "action", "resource_type", "resource_id", "details", "success", "ip_address", "user_agent", "ts",
			}).AddRow(1, "admin-1", "moderate_photo", "photo", "photo-1", `{"reason":"spam"}`, true, "10.0.0.1", "console/1.0", now))

		entries, total, err := d.QueryAuditLog(context.Background(), models.AuditQuery{
			AdminID:  "admin-1",
			Action:   "moderate_photo",
			Page:     1,
			PageSize: 20,
		})
		if err != nil {
			t.Fatalf("QueryAuditLog: %v", err)
		}
		if total != 1 || len(entries) != 1 {
			t.Fatalf("total = %d, len = %d, want 1/1", total, len(entries))
		}
		if entries[0].Details["reason"] != "spam" {
			t.Errorf("details not unmarshaled: %+v", entries[0].Details)
		}
	})
}

func TestGetSuspiciousActivity(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("GROUP BY admin_id, ip_address").
			WithArgs(sqlmock.AnyArg(), 20, 5).
			WillReturnRows(sqlmock.NewRows([]string{
				"admin_id", "ip_address", "total", "failed", "first", "last",
			}).AddRow("admin-1", "10.0.0.1", 25, 6, now.Add(-time.Hour), now))

		activity, err := d.GetSuspiciousActivity(context.Background(), 24*time.Hour, 20, 5)
		if err != nil {
			t.Fatalf("GetSuspiciousActivity: %v", err)
		}
		if len(activity) != 1 {
			t.Fatalf("groups = %d, want 1", len(activity))
		}
		if activity[0].TotalActions != 25 || activity[0].FailedActions != 6 {
			t.Errorf("activity = %+v", activity[0])
		}
	})
}

func TestPurgeAuditEntries(t *testing.T) {
	it(func() {
		cutoff := time.Now().AddDate(0, 0, -90)
		mock.ExpectExec("DELETE FROM audit_log WHERE ts <").
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 42))

		purged, err := d.PurgeAuditEntries(context.Background(), cutoff)
		if err != nil {
			t.Fatalf("PurgeAuditEntries: %v", err)
		}
		if purged != 42 {
			t.Errorf("purged = %d, want 42", purged)
		}
	})
}
