package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"moderation-service/engine"
	"moderation-service/models"
)

// EnsureModerationTable creates the content_moderation table if it doesn't exist
func (d *Database) EnsureModerationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS content_moderation (
			id BIGINT NOT NULL AUTO_INCREMENT,
			content_id VARCHAR(64) NOT NULL,
			content_type ENUM('photo', 'message', 'profile', 'story', 'pet', 'upload', 'user_profile') NOT NULL,
			status ENUM('pending', 'approved', 'rejected', 'flagged', 'quarantined', 'escalated') NOT NULL DEFAULT 'pending',
			ai_confidence FLOAT,
			ai_flags TEXT,
			ai_sentiment VARCHAR(32),
			ai_toxicity FLOAT,
			ai_processed_at TIMESTAMP NULL,
			reviewer_id VARCHAR(64),
			review_decision VARCHAR(32),
			review_reason VARCHAR(512),
			review_notes VARCHAR(1024),
			reviewed_at TIMESTAMP NULL,
			flags TEXT,
			confidence FLOAT NOT NULL DEFAULT 1.0,
			priority ENUM('low', 'medium', 'high', 'urgent') NOT NULL DEFAULT 'low',
			escalation_level TINYINT NOT NULL DEFAULT 0,
			auto_moderation BOOLEAN NOT NULL DEFAULT TRUE,
			quarantined_at TIMESTAMP NULL,
			quarantined_by VARCHAR(64),
			quarantine_reason VARCHAR(512),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE INDEX content_unique (content_id, content_type),
			INDEX status_index (status),
			INDEX quarantined_at_index (quarantined_at)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create content_moderation table: %w", err)
	}

	log.Println("Content moderation table ensured")
	return nil
}

const moderationColumns = `
	id, content_id, content_type, status,
	ai_confidence, ai_flags, COALESCE(ai_sentiment, ''), ai_toxicity, ai_processed_at,
	COALESCE(reviewer_id, ''), COALESCE(review_decision, ''), COALESCE(review_reason, ''), COALESCE(review_notes, ''), reviewed_at,
	COALESCE(flags, ''), confidence, priority, escalation_level, auto_moderation,
	quarantined_at, COALESCE(quarantined_by, ''), COALESCE(quarantine_reason, ''),
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanModerationRecord(row rowScanner) (*models.ModerationRecord, error) {
	var record models.ModerationRecord
	var aiConfidence, aiToxicity sql.NullFloat64
	var aiFlags sql.NullString
	var aiSentiment string
	var aiProcessedAt, reviewedAt sql.NullTime
	var reviewerID, reviewDecision, reviewReason, reviewNotes string
	var flags string
	var quarantinedAt sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.ContentID,
		&record.ContentType,
		&record.Status,
		&aiConfidence,
		&aiFlags,
		&aiSentiment,
		&aiToxicity,
		&aiProcessedAt,
		&reviewerID,
		&reviewDecision,
		&reviewReason,
		&reviewNotes,
		&reviewedAt,
		&flags,
		&record.Confidence,
		&record.Priority,
		&record.EscalationLevel,
		&record.AutoModerationEnabled,
		&quarantinedAt,
		&record.QuarantinedBy,
		&record.QuarantineReason,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if aiProcessedAt.Valid {
		analysis := &models.AIAnalysis{
			Confidence:    aiConfidence.Float64,
			Flags:         splitFlags(aiFlags.String),
			Sentiment:     aiSentiment,
			ToxicityScore: aiToxicity.Float64,
		}
		t := aiProcessedAt.Time
		analysis.ProcessedAt = &t
		record.AIAnalysis = analysis
	}

	if reviewedAt.Valid {
		record.HumanReview = &models.HumanReview{
			ReviewerID: reviewerID,
			Decision:   reviewDecision,
			Reason:     reviewReason,
			Notes:      reviewNotes,
			ReviewedAt: reviewedAt.Time,
		}
	}

	record.Flags = splitFlags(flags)
	if quarantinedAt.Valid {
		t := quarantinedAt.Time
		record.QuarantinedAt = &t
	}

	return &record, nil
}

// GetModerationRecord fetches the moderation record for one piece of content
func (d *Database) GetModerationRecord(ctx context.Context, contentID string, contentType models.ContentType) (*models.ModerationRecord, error) {
	query := `SELECT ` + moderationColumns + ` FROM content_moderation WHERE content_id = ? AND content_type = ?`

	record, err := scanModerationRecord(d.db.QueryRowContext(ctx, query, contentID, contentType))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("moderation record %s/%s: %w", contentType, contentID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get moderation record: %w", err)
	}

	return record, nil
}

// GetOrCreateModerationRecord fetches the record, creating a pending one on
// first contact with the content.
func (d *Database) GetOrCreateModerationRecord(ctx context.Context, contentID string, contentType models.ContentType) (*models.ModerationRecord, error) {
	insert := `
		INSERT IGNORE INTO content_moderation (content_id, content_type, status, priority)
		VALUES (?, ?, 'pending', 'low')
	`
	if _, err := d.db.ExecContext(ctx, insert, contentID, contentType); err != nil {
		return nil, fmt.Errorf("failed to create moderation record: %w", err)
	}

	return d.GetModerationRecord(ctx, contentID, contentType)
}

// UpsertFromVerdict writes classifier signals and the engine verdict into the
// moderation record. Priority is only refreshed while the record is still
// pending so human decisions are not overwritten by later signals. MySQL
// applies ON DUPLICATE KEY assignments left to right, so priority must be
// assigned before status mutates the value its IF condition reads.
func (d *Database) UpsertFromVerdict(ctx context.Context, signals models.ContentSignals, verdict engine.Verdict) error {
	var aiConfidence, aiToxicity sql.NullFloat64
	var aiFlags, aiSentiment sql.NullString
	var aiProcessedAt sql.NullTime
	if signals.AIAnalysis != nil {
		aiConfidence = sql.NullFloat64{Float64: signals.AIAnalysis.Confidence, Valid: true}
		aiToxicity = sql.NullFloat64{Float64: signals.AIAnalysis.ToxicityScore, Valid: true}
		aiFlags = sql.NullString{String: joinFlags(signals.AIAnalysis.Flags), Valid: true}
		aiSentiment = sql.NullString{String: signals.AIAnalysis.Sentiment, Valid: true}
		processedAt := time.Now().UTC()
		if signals.AIAnalysis.ProcessedAt != nil {
			processedAt = *signals.AIAnalysis.ProcessedAt
		}
		aiProcessedAt = sql.NullTime{Time: processedAt, Valid: true}
	}

	priority := engine.PriorityForSeverity(verdict.Severity)
	status := models.StatusPending
	if !verdict.Safe && verdict.Action == models.ActionFlag {
		status = models.StatusFlagged
	}

	query := `
		INSERT INTO content_moderation
			(content_id, content_type, status, ai_confidence, ai_flags, ai_sentiment, ai_toxicity, ai_processed_at,
			 flags, confidence, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			ai_confidence = VALUES(ai_confidence),
			ai_flags = VALUES(ai_flags),
			ai_sentiment = VALUES(ai_sentiment),
			ai_toxicity = VALUES(ai_toxicity),
			ai_processed_at = VALUES(ai_processed_at),
			flags = VALUES(flags),
			confidence = VALUES(confidence),
			priority = IF(status = 'pending', VALUES(priority), priority),
			status = IF(status = 'pending', VALUES(status), status)
	`

	_, err := d.db.ExecContext(ctx, query,
		signals.ContentID, signals.ContentType, status,
		aiConfidence, aiFlags, aiSentiment, aiToxicity, aiProcessedAt,
		joinFlags(verdict.Flags), verdict.Confidence, priority,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert moderation record: %w", err)
	}
	return nil
}

// ApplyTransition commits a state transition together with its side effects.
// The record update, the content activation change and the linked report
// resolution go in one transaction so they land together or not at all.
func (d *Database) ApplyTransition(ctx context.Context, record *models.ModerationRecord, result *engine.TransitionResult, actionTaken models.ModerationAction) (int64, error) {
	column, err := reportColumn(record.ContentType)
	if err != nil {
		return 0, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback will be ignored if tx.Commit() is called

	updateRecord := `
		UPDATE content_moderation
		SET status = ?,
			reviewer_id = ?, review_decision = ?, review_reason = ?, review_notes = ?, reviewed_at = ?,
			priority = ?, escalation_level = ?,
			quarantined_at = ?, quarantined_by = NULLIF(?, ''), quarantine_reason = NULLIF(?, '')
		WHERE content_id = ? AND content_type = ?
	`

	var reviewerID, reviewDecision, reviewReason, reviewNotes string
	var reviewedAt sql.NullTime
	if record.HumanReview != nil {
		reviewerID = record.HumanReview.ReviewerID
		reviewDecision = record.HumanReview.Decision
		reviewReason = record.HumanReview.Reason
		reviewNotes = record.HumanReview.Notes
		reviewedAt = sql.NullTime{Time: record.HumanReview.ReviewedAt, Valid: true}
	}

	var quarantinedAt sql.NullTime
	if record.QuarantinedAt != nil {
		quarantinedAt = sql.NullTime{Time: *record.QuarantinedAt, Valid: true}
	}

	res, err := tx.ExecContext(ctx, updateRecord,
		record.Status,
		reviewerID, reviewDecision, reviewReason, reviewNotes, reviewedAt,
		record.Priority, record.EscalationLevel,
		quarantinedAt, record.QuarantinedBy, record.QuarantineReason,
		record.ContentID, record.ContentType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update moderation record: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("moderation record %s/%s: %w", record.ContentType, record.ContentID, models.ErrNotFound)
	}

	if result.ContentActive != nil {
		updateContent := `UPDATE content SET is_active = ? WHERE content_id = ? AND content_type = ?`
		if _, err := tx.ExecContext(ctx, updateContent, *result.ContentActive, record.ContentID, record.ContentType); err != nil {
			return 0, fmt.Errorf("failed to update content activation: %w", err)
		}
	}

	var reportsAffected int64
	if result.ReportStatus != "" {
		var updateReports string
		var args []interface{}
		if result.Resolution != "" {
			updateReports = `
				UPDATE reports
				SET status = ?, resolved_at = NOW(), resolved_by = ?, resolution = ?, action_taken = ?
				WHERE ` + column + ` = ? AND status IN ('pending', 'under_review')
			`
			args = []interface{}{result.ReportStatus, reviewerID, result.Resolution, string(actionTaken), record.ContentID}
		} else {
			updateReports = `
				UPDATE reports
				SET status = ?
				WHERE ` + column + ` = ? AND status IN ('pending', 'under_review')
			`
			args = []interface{}{result.ReportStatus, record.ContentID}
		}

		res, err := tx.ExecContext(ctx, updateReports, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve linked reports: %w", err)
		}
		reportsAffected, err = res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected reports: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reportsAffected, nil
}

// GetQuarantined returns the global quarantine queue sorted by quarantined_at
// descending, paginated after the sort.
func (d *Database) GetQuarantined(ctx context.Context, page, pageSize int) (*models.QuarantinePage, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM content_moderation WHERE status = 'quarantined'`
	if err := d.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quarantined content: %w", err)
	}

	query := `
		SELECT content_id, content_type, quarantined_at, COALESCE(quarantined_by, ''), COALESCE(quarantine_reason, ''),
			escalation_level, COALESCE(flags, '')
		FROM content_moderation
		WHERE status = 'quarantined'
		ORDER BY quarantined_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := d.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get quarantined content: %w", err)
	}
	defer rows.Close()

	items := []models.QuarantinedItem{}
	for rows.Next() {
		var item models.QuarantinedItem
		var quarantinedAt sql.NullTime
		var flags string
		err := rows.Scan(
			&item.ContentID,
			&item.ContentType,
			&quarantinedAt,
			&item.QuarantinedBy,
			&item.QuarantineReason,
			&item.EscalationLevel,
			&flags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quarantined item: %w", err)
		}
		if quarantinedAt.Valid {
			item.QuarantinedAt = quarantinedAt.Time
		}
		item.Flags = splitFlags(flags)
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarantined content: %w", err)
	}

	return &models.QuarantinePage{
		Quarantined: items,
		Pagination:  paginate(page, pageSize, total),
	}, nil
}

func paginate(page, pageSize int, total int64) models.Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
