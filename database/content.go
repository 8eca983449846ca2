package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"moderation-service/models"
)

// EnsureContentTable creates the content table if it doesn't exist
func (d *Database) EnsureContentTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS content (
			content_id VARCHAR(64) NOT NULL,
			content_type ENUM('photo', 'message', 'profile', 'story', 'pet', 'upload', 'user_profile') NOT NULL,
			owner_id VARCHAR(64) NOT NULL,
			text TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (content_id, content_type),
			INDEX owner_index (owner_id),
			INDEX active_index (is_active)
		)
	`

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create content table: %w", err)
	}

	log.Println("Content table ensured")
	return nil
}

// GetContent fetches one piece of content by id and type
func (d *Database) GetContent(ctx context.Context, contentID string, contentType models.ContentType) (*models.Content, error) {
	query := `
		SELECT content_id, content_type, owner_id, COALESCE(text, ''), is_active, created_at, updated_at
		FROM content
		WHERE content_id = ? AND content_type = ?
	`

	var content models.Content
	err := d.db.QueryRowContext(ctx, query, contentID, contentType).Scan(
		&content.ID,
		&content.ContentType,
		&content.OwnerID,
		&content.Text,
		&content.IsActive,
		&content.CreatedAt,
		&content.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("content %s/%s: %w", contentType, contentID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &content, nil
}

// UpsertContent inserts or refreshes a content row. Used when classifier
// signals arrive for content this service has not seen yet.
func (d *Database) UpsertContent(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO content (content_id, content_type, owner_id, text, is_active)
		VALUES (?, ?, ?, ?, TRUE)
		ON DUPLICATE KEY UPDATE
			owner_id = VALUES(owner_id),
			text = VALUES(text)
	`

	_, err := d.db.ExecContext(ctx, query, content.ID, content.ContentType, content.OwnerID, content.Text)
	if err != nil {
		return fmt.Errorf("failed to upsert content: %w", err)
	}
	return nil
}
