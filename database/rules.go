package database

import (
	"context"
	"fmt"
	"log"

	"moderation-service/models"
)

// EnsureRulesTable creates the moderation_rules table if it doesn't exist
func (d *Database) EnsureRulesTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS moderation_rules (
			id BIGINT NOT NULL AUTO_INCREMENT,
			name VARCHAR(128) NOT NULL,
			content_type ENUM('photo', 'message', 'profile', 'story', 'pet', 'upload', 'user_profile') NOT NULL,
			keywords TEXT,
			image_labels TEXT,
			report_count_threshold INT NOT NULL DEFAULT 0,
			action ENUM('approve', 'reject', 'flag', 'quarantine', 'escalate', 'release') NOT NULL,
			severity ENUM('low', 'medium', 'high', 'critical') NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE INDEX name_unique (name),
			INDEX content_type_index (content_type),
			INDEX active_index (is_active)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create moderation_rules table: %w", err)
	}

	log.Println("Moderation rules table ensured")
	return nil
}

// CreateRule inserts a new configured rule and returns it with its id.
func (d *Database) CreateRule(ctx context.Context, rule *models.ModerationRule) (*models.ModerationRule, error) {
	query := `
		INSERT INTO moderation_rules (name, content_type, keywords, image_labels, report_count_threshold, action, severity, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query,
		rule.Name,
		rule.ContentType,
		joinFlags(rule.Conditions.Keywords),
		joinFlags(rule.Conditions.ImageLabels),
		rule.Conditions.ReportCountThreshold,
		rule.Action,
		rule.Severity,
		rule.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule id: %w", err)
	}

	created := *rule
	created.ID = id
	log.Printf("Moderation rule %q created with id %d", rule.Name, id)
	return &created, nil
}

// ListRules returns all configured rules, optionally only active ones.
func (d *Database) ListRules(ctx context.Context, activeOnly bool) ([]models.ModerationRule, error) {
	query := `
		SELECT id, name, content_type, COALESCE(keywords, ''), COALESCE(image_labels, ''),
			report_count_threshold, action, severity, is_active, created_at, updated_at
		FROM moderation_rules
	`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderation rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ModerationRule
	for rows.Next() {
		var rule models.ModerationRule
		var keywords, imageLabels string
		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.ContentType,
			&keywords,
			&imageLabels,
			&rule.Conditions.ReportCountThreshold,
			&rule.Action,
			&rule.Severity,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moderation rule: %w", err)
		}
		rule.Conditions.Keywords = splitFlags(keywords)
		rule.Conditions.ImageLabels = splitFlags(imageLabels)
		rules = append(rules, rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moderation rules: %w", err)
	}

	return rules, nil
}
