package services

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"

	"moderation-service/models"
)

// AnalyticsStore is the read-only aggregation surface.
type AnalyticsStore interface {
	GetReportStats(ctx context.Context, since time.Time) (*models.ReportStats, error)
	GetContentStats(ctx context.Context, since time.Time) (*models.ContentStats, error)
	GetAdminActivity(ctx context.Context, since time.Time) ([]models.AdminActivity, error)
	GetTopReportTypes(ctx context.Context, since time.Time, limit int) ([]models.ReportTypeCount, error)
}

const (
	defaultPeriodDays = 30
	topReportTypes    = 10
)

// AnalyticsService aggregates moderation and report volumes over a window.
// Aggregation is read-only and never serializes with the write paths; the
// default period is refreshed out of band so admin page loads hit a cache.
type AnalyticsService struct {
	store        AnalyticsStore
	queryTimeout time.Duration
	refreshEvery time.Duration

	mu       sync.RWMutex
	cached   *models.Stats
	cachedAt time.Time
}

// NewAnalyticsService creates the analytics aggregator.
func NewAnalyticsService(store AnalyticsStore, queryTimeout, refreshEvery time.Duration) *AnalyticsService {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	if refreshEvery <= 0 {
		refreshEvery = 5 * time.Minute
	}
	return &AnalyticsService{
		store:        store,
		queryTimeout: queryTimeout,
		refreshEvery: refreshEvery,
	}
}

// GetStats returns aggregated stats for the trailing periodDays window. The
// default period is served from the background-refreshed cache when fresh.
func (s *AnalyticsService) GetStats(ctx context.Context, periodDays int) (*models.Stats, error) {
	if periodDays < 1 {
		periodDays = defaultPeriodDays
	}

	if periodDays == defaultPeriodDays {
		s.mu.RLock()
		cached, cachedAt := s.cached, s.cachedAt
		s.mu.RUnlock()
		if cached != nil && time.Since(cachedAt) < s.refreshEvery {
			return cached, nil
		}
	}

	return s.compute(ctx, periodDays)
}

func (s *AnalyticsService) compute(ctx context.Context, periodDays int) (*models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -periodDays)

	reportStats, err := s.store.GetReportStats(ctx, since)
	if err != nil {
		return nil, err
	}
	contentStats, err := s.store.GetContentStats(ctx, since)
	if err != nil {
		return nil, err
	}
	adminActivity, err := s.store.GetAdminActivity(ctx, since)
	if err != nil {
		return nil, err
	}
	topTypes, err := s.store.GetTopReportTypes(ctx, since, topReportTypes)
	if err != nil {
		return nil, err
	}

	var totalActioned int64
	for _, a := range adminActivity {
		totalActioned += a.Actions
	}

	stats := &models.Stats{
		ReportStats:    *reportStats,
		ContentStats:   *contentStats,
		AdminActivity:  adminActivity,
		TopReportTypes: topTypes,
		Summary: models.StatsSummary{
			PeriodDays:    periodDays,
			From:          since,
			To:            now,
			TotalReports:  reportStats.Total,
			TotalActioned: totalActioned,
		},
	}

	if periodDays == defaultPeriodDays {
		s.mu.Lock()
		s.cached = stats
		s.cachedAt = now
		s.mu.Unlock()
	}

	return stats, nil
}

// StartRefreshLoop keeps the default-period cache warm until ctx is done.
func (s *AnalyticsService) StartRefreshLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.compute(ctx, defaultPeriodDays); err != nil {
					log.WithError(err).Warn("analytics cache refresh failed")
				}
			}
		}
	}()
}
