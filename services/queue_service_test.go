package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-service/models"
)

type fakeQueueStore struct {
	reports        []models.QueuedReport
	stats          *models.QueueStats
	staleDismissed int64
	staleCalls     int
}

func (f *fakeQueueStore) GetQueue(_ context.Context, _ models.QueueFilter, _, _ int, _ time.Time) ([]models.QueuedReport, int64, error) {
	return f.reports, int64(len(f.reports)), nil
}

func (f *fakeQueueStore) GetQueueStats(_ context.Context) (*models.QueueStats, error) {
	return f.stats, nil
}

func (f *fakeQueueStore) MarkStaleReportsDismissed(_ context.Context) (int64, error) {
	f.staleCalls++
	return f.staleDismissed, nil
}

func (f *fakeQueueStore) GetQuarantined(_ context.Context, page, pageSize int) (*models.QuarantinePage, error) {
	return &models.QuarantinePage{
		Quarantined: []models.QuarantinedItem{},
		Pagination:  models.Pagination{Page: page, PageSize: pageSize},
	}, nil
}

func queuedReport(id int64, priority models.Priority, age time.Duration, status models.ReportStatus) models.QueuedReport {
	reporter := "reporter-1"
	upload := "upload-1"
	return models.QueuedReport{
		Report: models.Report{
			ID:               id,
			ReporterID:       reporter,
			ReportedUploadID: &upload,
			ContentType:      models.ContentTypePhoto,
			Type:             "inappropriate_content",
			Status:           status,
			Priority:         priority,
			SubmittedAt:      time.Now().Add(-age),
		},
	}
}

func TestGetQueueEnrichment(t *testing.T) {
	store := &fakeQueueStore{
		reports: []models.QueuedReport{
			queuedReport(1, models.PriorityUrgent, 25*time.Hour, models.ReportPending),
			queuedReport(2, models.PriorityUrgent, 23*time.Hour, models.ReportPending),
			queuedReport(3, models.PriorityLow, 48*time.Hour, models.ReportPending),
		},
		stats: &models.QueueStats{
			ByStatus:   map[string]int{"pending": 3},
			ByPriority: map[string]int{"urgent": 2, "low": 1},
			Total:      3,
		},
	}
	svc := NewQueueService(store, 7*24*time.Hour)

	page, err := svc.GetQueue(context.Background(), models.QueueFilter{ModerationLevel: -1}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Reports, 3)

	// Urgent SLA is 1 day: 25h overdue, 23h not.
	assert.True(t, page.Reports[0].IsOverdue)
	assert.False(t, page.Reports[1].IsOverdue)
	// Low SLA is 14 days.
	assert.False(t, page.Reports[2].IsOverdue)

	require.NotNil(t, page.Reports[0].Reporter)
	assert.Equal(t, "reporter-1", page.Reports[0].Reporter.ID)
	require.NotNil(t, page.Reports[0].Reported)
	assert.Equal(t, "upload-1", page.Reports[0].Reported.ID)
	assert.Equal(t, "upload", page.Reports[0].Reported.Kind)

	assert.Equal(t, 1, store.staleCalls, "stale reports reconciled on queue read")
	require.NotNil(t, page.Stats)
	assert.Equal(t, 3, page.Stats.Total)
}

func TestGetQueueClampsPagination(t *testing.T) {
	store := &fakeQueueStore{stats: &models.QueueStats{ByStatus: map[string]int{}, ByPriority: map[string]int{}}}
	svc := NewQueueService(store, 0)

	page, err := svc.GetQueue(context.Background(), models.QueueFilter{ModerationLevel: -1}, -3, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 20, page.Pagination.PageSize)
	assert.NotNil(t, page.Reports)
}

func TestIsOverdueThresholds(t *testing.T) {
	now := time.Now()
	tests := []struct {
		priority models.Priority
		age      time.Duration
		want     bool
	}{
		{models.PriorityUrgent, 25 * time.Hour, true},
		{models.PriorityUrgent, 23 * time.Hour, false},
		{models.PriorityHigh, 4 * 24 * time.Hour, true},
		{models.PriorityHigh, 2 * 24 * time.Hour, false},
		{models.PriorityMedium, 8 * 24 * time.Hour, true},
		{models.PriorityLow, 15 * 24 * time.Hour, true},
		{models.PriorityLow, 13 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		got := IsOverdue(models.ReportPending, tt.priority, now.Add(-tt.age), now)
		assert.Equal(t, tt.want, got, "priority=%s age=%s", tt.priority, tt.age)
	}

	// Settled reports are never overdue.
	assert.False(t, IsOverdue(models.ReportResolved, models.PriorityUrgent, now.Add(-72*time.Hour), now))
	assert.False(t, IsOverdue(models.ReportDismissed, models.PriorityUrgent, now.Add(-72*time.Hour), now))
}
