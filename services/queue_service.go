package services

import (
	"context"
	"time"

	"github.com/apex/log"

	"moderation-service/metrics"
	"moderation-service/models"
)

// QueueStore is the persistence surface the review queue needs.
type QueueStore interface {
	GetQueue(ctx context.Context, filter models.QueueFilter, page, pageSize int, similarSince time.Time) ([]models.QueuedReport, int64, error)
	GetQueueStats(ctx context.Context) (*models.QueueStats, error)
	MarkStaleReportsDismissed(ctx context.Context) (int64, error)
	GetQuarantined(ctx context.Context, page, pageSize int) (*models.QuarantinePage, error)
}

// Overdue SLA thresholds by priority, measured from submission.
var overdueThresholds = map[models.Priority]time.Duration{
	models.PriorityUrgent: 24 * time.Hour,
	models.PriorityHigh:   3 * 24 * time.Hour,
	models.PriorityMedium: 7 * 24 * time.Hour,
	models.PriorityLow:    14 * 24 * time.Hour,
}

// QueueService ranks and enriches the human review queue.
type QueueService struct {
	store         QueueStore
	similarWindow time.Duration
}

// NewQueueService creates the review queue service.
func NewQueueService(store QueueStore, similarWindow time.Duration) *QueueService {
	if similarWindow <= 0 {
		similarWindow = 7 * 24 * time.Hour
	}
	return &QueueService{store: store, similarWindow: similarWindow}
}

// GetQueue returns one page of the ranked queue with enrichment and stats.
// Stale reports against already-moderated content are dismissed first.
func (s *QueueService) GetQueue(ctx context.Context, filter models.QueueFilter, page, pageSize int) (*models.QueuePage, error) {
	page, pageSize = clampPage(page, pageSize)

	// Reconcile before ranking so terminal content never surfaces.
	if _, err := s.store.MarkStaleReportsDismissed(ctx); err != nil {
		log.WithError(err).Warn("stale report reconciliation failed")
	}

	similarSince := time.Now().Add(-s.similarWindow)
	reports, total, err := s.store.GetQueue(ctx, filter, page, pageSize, similarSince)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range reports {
		enrich(&reports[i], now)
	}

	stats, err := s.store.GetQueueStats(ctx)
	if err != nil {
		// Stats are decoration on the listing, the queue itself is the answer.
		log.WithError(err).Warn("failed to load queue stats")
		stats = nil
	}
	if stats != nil {
		open := stats.ByStatus[string(models.ReportPending)] + stats.ByStatus[string(models.ReportUnderReview)]
		metrics.QueueDepth.Set(float64(open))
	}

	if reports == nil {
		reports = []models.QueuedReport{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &models.QueuePage{
		Reports: reports,
		Pagination: models.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
		Stats: stats,
	}, nil
}

// GetQuarantineQueue returns the global quarantine listing, newest first
// across all content types.
func (s *QueueService) GetQuarantineQueue(ctx context.Context, page, pageSize int) (*models.QuarantinePage, error) {
	page, pageSize = clampPage(page, pageSize)
	return s.store.GetQuarantined(ctx, page, pageSize)
}

// GetStats returns the current queue stats.
func (s *QueueService) GetStats(ctx context.Context) (*models.QueueStats, error) {
	return s.store.GetQueueStats(ctx)
}

// enrich fills the derived fields of a queue entry.
func enrich(report *models.QueuedReport, now time.Time) {
	report.IsOverdue = IsOverdue(report.Status, report.Priority, report.SubmittedAt, now)

	report.Reporter = &models.EntitySummary{
		ID:   report.ReporterID,
		Kind: "user",
	}
	if id := report.ContentID(); id != "" {
		report.Reported = &models.EntitySummary{
			ID:   id,
			Kind: reportedKind(report.ContentType),
		}
	}
}

// IsOverdue reports whether an open report has exceeded its priority SLA.
func IsOverdue(status models.ReportStatus, priority models.Priority, submittedAt, now time.Time) bool {
	if status != models.ReportPending && status != models.ReportUnderReview {
		return false
	}
	threshold, ok := overdueThresholds[priority]
	if !ok {
		return false
	}
	return now.Sub(submittedAt) > threshold
}

func reportedKind(t models.ContentType) string {
	switch t {
	case models.ContentTypeProfile, models.ContentTypeUserProfile:
		return "user"
	case models.ContentTypePet:
		return "pet"
	case models.ContentTypeMessage:
		return "message"
	case models.ContentTypeStory:
		return "story"
	default:
		return "upload"
	}
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
