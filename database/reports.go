package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"moderation-service/models"
)

// EnsureReportsTable creates the reports table if it doesn't exist
func (d *Database) EnsureReportsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS reports (
			id BIGINT NOT NULL AUTO_INCREMENT,
			reporter_id VARCHAR(64) NOT NULL,
			reported_user_id VARCHAR(64),
			reported_pet_id VARCHAR(64),
			reported_message_id VARCHAR(64),
			reported_story_id VARCHAR(64),
			reported_upload_id VARCHAR(64),
			content_type ENUM('photo', 'message', 'profile', 'story', 'pet', 'upload', 'user_profile') NOT NULL,
			type VARCHAR(64) NOT NULL,
			reason VARCHAR(512),
			status ENUM('pending', 'under_review', 'resolved', 'escalated', 'dismissed') NOT NULL DEFAULT 'pending',
			priority ENUM('low', 'medium', 'high', 'urgent') NOT NULL DEFAULT 'medium',
			report_count INT NOT NULL DEFAULT 1,
			submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			resolved_at TIMESTAMP NULL,
			resolved_by VARCHAR(64),
			resolution VARCHAR(32),
			action_taken VARCHAR(32),
			PRIMARY KEY (id),
			INDEX status_index (status),
			INDEX priority_index (priority),
			INDEX submitted_at_index (submitted_at),
			INDEX reported_user_index (reported_user_id),
			INDEX reported_upload_index (reported_upload_id)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	log.Println("Reports table ensured")
	return nil
}

// GetQueue returns one page of the ranked review queue. Ordering is priority
// first (urgent at the top), then oldest submission, then report count as the
// final tiebreak. similarSince bounds the similar-reports subquery window.
func (d *Database) GetQueue(ctx context.Context, filter models.QueueFilter, page, pageSize int, similarSince time.Time) ([]models.QueuedReport, int64, error) {
	where := `r.status IN ('pending', 'under_review')`
	args := []interface{}{}

	if filter.ContentType != "" {
		where += ` AND r.content_type = ?`
		args = append(args, filter.ContentType)
	}
	if filter.Priority != "" {
		where += ` AND r.priority = ?`
		args = append(args, filter.Priority)
	}
	if filter.ModerationLevel >= 0 {
		where += ` AND EXISTS (
			SELECT 1 FROM content_moderation m
			WHERE m.content_type = r.content_type AND m.content_id = ` + contentKey("r") + ` AND m.escalation_level = ?)`
		args = append(args, filter.ModerationLevel)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM reports r WHERE ` + where
	if err := d.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count queue reports: %w", err)
	}

	query := `
		SELECT r.id, r.reporter_id,
			r.reported_user_id, r.reported_pet_id, r.reported_message_id, r.reported_story_id, r.reported_upload_id,
			r.content_type, r.type, COALESCE(r.reason, ''), r.status, r.priority, r.report_count, r.submitted_at,
			(SELECT COUNT(*) FROM reports r2
				WHERE r2.id <> r.id
				AND r2.status = 'pending'
				AND r2.submitted_at >= ?
				AND r2.content_type = r.content_type
				AND ` + contentKey("r2") + ` = ` + contentKey("r") + `) AS similar_count
		FROM reports r
		WHERE ` + where + `
		ORDER BY FIELD(r.priority, 'urgent', 'high', 'medium', 'low'), r.submitted_at ASC, r.report_count DESC
		LIMIT ? OFFSET ?
	`

	queryArgs := append([]interface{}{similarSince}, args...)
	queryArgs = append(queryArgs, pageSize, (page-1)*pageSize)

	rows, err := d.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get review queue: %w", err)
	}
	defer rows.Close()

	var reports []models.QueuedReport
	for rows.Next() {
		var report models.QueuedReport
		err := rows.Scan(
			&report.ID,
			&report.ReporterID,
			&report.ReportedUserID,
			&report.ReportedPetID,
			&report.ReportedMessageID,
			&report.ReportedStoryID,
			&report.ReportedUploadID,
			&report.ContentType,
			&report.Type,
			&report.Reason,
			&report.Status,
			&report.Priority,
			&report.ReportCount,
			&report.SubmittedAt,
			&report.SimilarReportsCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan queue report: %w", err)
		}
		reports = append(reports, report)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating queue reports: %w", err)
	}

	return reports, total, nil
}

// GetQueueStats returns report counts by status and, for open reports, by
// priority, plus the overdue count per the priority SLAs.
func (d *Database) GetQueueStats(ctx context.Context) (*models.QueueStats, error) {
	stats := &models.QueueStats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	statusQuery := `SELECT status, COUNT(*) FROM reports GROUP BY status`
	rows, err := d.db.QueryContext(ctx, statusQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get report status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	priorityQuery := `
		SELECT priority, COUNT(*)
		FROM reports
		WHERE status IN ('pending', 'under_review')
		GROUP BY priority
	`
	prows, err := d.db.QueryContext(ctx, priorityQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get report priority counts: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var priority string
		var count int
		if err := prows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		stats.ByPriority[priority] = count
	}
	if err = prows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating priority counts: %w", err)
	}

	overdueQuery := `
		SELECT COUNT(*)
		FROM reports
		WHERE status IN ('pending', 'under_review')
		AND ((priority = 'urgent' AND submitted_at < NOW() - INTERVAL 1 DAY)
			OR (priority = 'high' AND submitted_at < NOW() - INTERVAL 3 DAY)
			OR (priority = 'medium' AND submitted_at < NOW() - INTERVAL 7 DAY)
			OR (priority = 'low' AND submitted_at < NOW() - INTERVAL 14 DAY))
	`
	if err := d.db.QueryRowContext(ctx, overdueQuery).Scan(&stats.Overdue); err != nil {
		return nil, fmt.Errorf("failed to count overdue reports: %w", err)
	}

	return stats, nil
}

// MarkStaleReportsDismissed dismisses open reports whose content was already
// actioned: settled records, and quarantined content that is hidden from
// users. Catches reports filed after the action landed.
func (d *Database) MarkStaleReportsDismissed(ctx context.Context) (int64, error) {
	query := `
		UPDATE reports r
		JOIN content_moderation m
			ON m.content_type = r.content_type AND m.content_id = ` + contentKey("r") + `
		SET r.status = 'dismissed'
		WHERE r.status IN ('pending', 'under_review')
		AND m.status IN ('approved', 'rejected', 'quarantined')
	`

	result, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to dismiss stale reports: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get dismissed report count: %w", err)
	}
	if rows > 0 {
		log.Printf("Dismissed %d stale reports", rows)
	}
	return rows, nil
}
