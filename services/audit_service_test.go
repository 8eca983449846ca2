package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-service/models"
)

func TestLogAfterCloseDropsEntry(t *testing.T) {
	store := &fakeAuditStore{}
	audit := NewAuditService(store, 4, 90, time.Hour)
	audit.Close()

	// Consumers can still be mid-flight when shutdown closes the audit
	// service; a late entry must be dropped, never a panic.
	assert.NotPanics(t, func() {
		audit.Log(&models.AuditLogEntry{
			AdminID: "admin-1",
			Action:  "moderate_photo",
		})
	})
	assert.Empty(t, store.byAction("moderate_photo"))

	// Close is idempotent.
	assert.NotPanics(t, audit.Close)
}

func TestCloseDrainsBufferedEntries(t *testing.T) {
	store := &fakeAuditStore{}
	audit := NewAuditService(store, 4, 90, time.Hour)

	audit.Log(&models.AuditLogEntry{AdminID: "admin-1", Action: "moderate_photo"})
	audit.Close()

	require.Len(t, store.byAction("moderate_photo"), 1)
}

func TestQueryClampsPagination(t *testing.T) {
	store := &fakeAuditStore{}
	audit := NewAuditService(store, 4, 90, time.Hour)
	defer audit.Close()

	_, pagination, err := audit.Query(context.Background(), models.AuditQuery{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
