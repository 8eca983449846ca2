package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"moderation-service/config"
	"moderation-service/models"

	_ "github.com/go-sql-driver/mysql"
)

// Database handles all database operations
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Printf("Database connected successfully to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// EnsureSchema creates all tables this service owns.
func (d *Database) EnsureSchema(ctx context.Context) error {
	steps := []func(context.Context) error{
		d.EnsureContentTable,
		d.EnsureModerationTable,
		d.EnsureReportsTable,
		d.EnsureAuditTable,
		d.EnsureRulesTable,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// reportColumn maps a content type to the reports column holding its id.
func reportColumn(t models.ContentType) (string, error) {
	switch t {
	case models.ContentTypeProfile, models.ContentTypeUserProfile:
		return "reported_user_id", nil
	case models.ContentTypePet:
		return "reported_pet_id", nil
	case models.ContentTypeMessage:
		return "reported_message_id", nil
	case models.ContentTypeStory:
		return "reported_story_id", nil
	case models.ContentTypePhoto, models.ContentTypeUpload:
		return "reported_upload_id", nil
	}
	return "", fmt.Errorf("%w: %q", models.ErrInvalidContentType, t)
}

// contentKey is the reports-side expression matching a content id across the
// discriminated reported_* columns.
func contentKey(alias string) string {
	return fmt.Sprintf("COALESCE(%[1]s.reported_user_id, %[1]s.reported_pet_id, %[1]s.reported_message_id, %[1]s.reported_story_id, %[1]s.reported_upload_id)", alias)
}

func joinFlags(flags []string) string {
	return strings.Join(flags, ",")
}

func splitFlags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
