package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"moderation-service/models"
)

// EnsureAuditTable creates the audit_log table if it doesn't exist
func (d *Database) EnsureAuditTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_log (
			id BIGINT NOT NULL AUTO_INCREMENT,
			admin_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			details JSON,
			success BOOLEAN NOT NULL DEFAULT TRUE,
			ip_address VARCHAR(45),
			user_agent VARCHAR(512),
			ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX admin_index (admin_id),
			INDEX action_index (action),
			INDEX ts_index (ts)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create audit_log table: %w", err)
	}

	log.Println("Audit log table ensured")
	return nil
}

// InsertAuditEntry appends one audit entry. Entries are never updated.
func (d *Database) InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	var details sql.NullString
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO audit_log (admin_id, action, resource_type, resource_id, details, success, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		entry.AdminID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		details,
		entry.Success,
		entry.IPAddress,
		entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// QueryAuditLog lists audit entries newest first with optional filters.
func (d *Database) QueryAuditLog(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, int64, error) {
	where := `1 = 1`
	args := []interface{}{}

	if q.AdminID != "" {
		where += ` AND admin_id = ?`
		args = append(args, q.AdminID)
	}
	if q.Action != "" {
		where += ` AND action = ?`
		args = append(args, q.Action)
	}
	if q.ResourceType != "" {
		where += ` AND resource_type = ?`
		args = append(args, q.ResourceType)
	}
	if q.ResourceID != "" {
		where += ` AND resource_id = ?`
		args = append(args, q.ResourceID)
	}
	if q.From != nil {
		where += ` AND ts >= ?`
		args = append(args, *q.From)
	}
	if q.To != nil {
		where += ` AND ts <= ?`
		args = append(args, *q.To)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM audit_log WHERE ` + where
	if err := d.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := `
		SELECT id, admin_id, action, resource_type, resource_id, details, success,
			COALESCE(ip_address, ''), COALESCE(user_agent, ''), ts
		FROM audit_log
		WHERE ` + where + `
		ORDER BY ts DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		var details sql.NullString
		err := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&details,
			&entry.Success,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				log.Printf("Failed to unmarshal audit details for entry %d: %v", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, total, nil
}

// GetSuspiciousActivity groups recent activity by (admin, ip) and flags
// groups with too many total or failed actions inside the window.
func (d *Database) GetSuspiciousActivity(ctx context.Context, window time.Duration, minActions, minFailures int) ([]models.SuspiciousActivity, error) {
	query := `
		SELECT admin_id, COALESCE(ip_address, ''), COUNT(*) AS total,
			SUM(CASE WHEN success = FALSE THEN 1 ELSE 0 END) AS failed,
			MIN(ts), MAX(ts)
		FROM audit_log
		WHERE ts >= ?
		GROUP BY admin_id, ip_address
		HAVING total >= ? OR failed >= ?
		ORDER BY total DESC
	`

	since := time.Now().Add(-window)
	rows, err := d.db.QueryContext(ctx, query, since, minActions, minFailures)
	if err != nil {
		return nil, fmt.Errorf("failed to get suspicious activity: %w", err)
	}
	defer rows.Close()

	var activities []models.SuspiciousActivity
	for rows.Next() {
		var a models.SuspiciousActivity
		err := rows.Scan(
			&a.AdminID,
			&a.IPAddress,
			&a.TotalActions,
			&a.FailedActions,
			&a.FirstSeen,
			&a.LastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suspicious activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suspicious activity: %w", err)
	}

	return activities, nil
}

// PurgeAuditEntries removes entries older than the retention cutoff.
func (d *Database) PurgeAuditEntries(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM audit_log WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purged entry count: %w", err)
	}
	return rows, nil
}
