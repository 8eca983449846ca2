package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"moderation-service/models"
)

// GetReportStats aggregates report volume and resolution latency since the
// given time. avgResolutionSeconds covers resolved reports only.
func (d *Database) GetReportStats(ctx context.Context, since time.Time) (*models.ReportStats, error) {
	stats := &models.ReportStats{ByStatus: make(map[string]int)}

	query := `SELECT status, COUNT(*) FROM reports WHERE submitted_at >= ? GROUP BY status`
	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get report stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan report stat: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += int64(count)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report stats: %w", err)
	}

	resolutionQuery := `
		SELECT COUNT(*), COALESCE(AVG(TIMESTAMPDIFF(SECOND, submitted_at, resolved_at)), 0)
		FROM reports
		WHERE submitted_at >= ? AND resolved_at IS NOT NULL
	`
	err = d.db.QueryRowContext(ctx, resolutionQuery, since).Scan(&stats.Resolved, &stats.AvgResolutionSeconds)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get resolution stats: %w", err)
	}

	return stats, nil
}

// GetContentStats aggregates moderation records by status since the given time.
func (d *Database) GetContentStats(ctx context.Context, since time.Time) (*models.ContentStats, error) {
	stats := &models.ContentStats{ByStatus: make(map[string]int)}

	query := `SELECT status, COUNT(*) FROM content_moderation WHERE updated_at >= ? GROUP BY status`
	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get content stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan content stat: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += int64(count)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content stats: %w", err)
	}

	stats.Quarantined = int64(stats.ByStatus[string(models.StatusQuarantined)])
	stats.Escalated = int64(stats.ByStatus[string(models.StatusEscalated)])

	return stats, nil
}

// GetAdminActivity returns per-admin action volume since the given time,
// busiest admins first.
func (d *Database) GetAdminActivity(ctx context.Context, since time.Time) ([]models.AdminActivity, error) {
	query := `
		SELECT admin_id, COUNT(*) AS total,
			SUM(CASE WHEN success = FALSE THEN 1 ELSE 0 END) AS failed
		FROM audit_log
		WHERE ts >= ?
		GROUP BY admin_id
		ORDER BY total DESC
	`

	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin activity: %w", err)
	}
	defer rows.Close()

	var activity []models.AdminActivity
	for rows.Next() {
		var a models.AdminActivity
		if err := rows.Scan(&a.AdminID, &a.Actions, &a.FailedActions); err != nil {
			return nil, fmt.Errorf("failed to scan admin activity: %w", err)
		}
		activity = append(activity, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin activity: %w", err)
	}

	return activity, nil
}

// GetTopReportTypes returns the most frequent report types since the given
// time, descending count.
func (d *Database) GetTopReportTypes(ctx context.Context, since time.Time, limit int) ([]models.ReportTypeCount, error) {
	query := `
		SELECT type, COUNT(*) AS count
		FROM reports
		WHERE submitted_at >= ?
		GROUP BY type
		ORDER BY count DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top report types: %w", err)
	}
	defer rows.Close()

	var types []models.ReportTypeCount
	for rows.Next() {
		var t models.ReportTypeCount
		if err := rows.Scan(&t.Type, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan report type count: %w", err)
		}
		types = append(types, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report types: %w", err)
	}

	return types, nil
}
