package services

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"

	"moderation-service/metrics"
	"moderation-service/models"
)

// AuditStore is the persistence surface the audit service needs.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error
	QueryAuditLog(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, int64, error)
	GetSuspiciousActivity(ctx context.Context, window time.Duration, minActions, minFailures int) ([]models.SuspiciousActivity, error)
	PurgeAuditEntries(ctx context.Context, cutoff time.Time) (int64, error)
}

// Suspicious-activity heuristic: within a 24h window, flag (admin, ip) groups
// with too many total or failed actions.
const (
	suspiciousWindow      = 24 * time.Hour
	suspiciousMinActions  = 20
	suspiciousMinFailures = 5
)

// AuditService appends audit entries asynchronously. Writes are fire and
// forget relative to the triggering request: a failed write is logged and
// counted, never propagated.
type AuditService struct {
	store         AuditStore
	entries       chan *models.AuditLogEntry
	done          chan struct{}
	retentionDays int
	purgeInterval time.Duration

	// mu guards closed so Log stays a harmless drop after Close. Late
	// writers exist during shutdown while consumers drain in flight.
	mu     sync.Mutex
	closed bool
}

// NewAuditService creates the audit service and starts its writer goroutine.
func NewAuditService(store AuditStore, bufferSize, retentionDays int, purgeInterval time.Duration) *AuditService {
	s := &AuditService{
		store:         store,
		entries:       make(chan *models.AuditLogEntry, bufferSize),
		done:          make(chan struct{}),
		retentionDays: retentionDays,
		purgeInterval: purgeInterval,
	}
	go s.writer()
	return s
}

// Log queues one audit entry. Never blocks and never fails the caller: a
// full buffer or a closed service drops the entry and records the loss.
func (s *AuditService) Log(entry *models.AuditLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		metrics.AuditWriteFailures.Inc()
		log.WithFields(log.Fields{
			"admin_id": entry.AdminID,
			"action":   entry.Action,
		}).Warn("audit service closed, entry dropped")
		return
	}

	select {
	case s.entries <- entry:
	default:
		metrics.AuditWriteFailures.Inc()
		log.WithFields(log.Fields{
			"admin_id": entry.AdminID,
			"action":   entry.Action,
		}).Warn("audit buffer full, entry dropped")
	}
}

func (s *AuditService) writer() {
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.store.InsertAuditEntry(ctx, entry)
		cancel()
		if err != nil {
			metrics.AuditWriteFailures.Inc()
			log.WithError(err).WithFields(log.Fields{
				"admin_id": entry.AdminID,
				"action":   entry.Action,
			}).Error("failed to write audit entry")
		}
	}
	close(s.done)
}

// Close stops accepting entries and waits for the buffer to drain. Safe to
// call more than once; Log calls after Close are dropped, not panics.
func (s *AuditService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()

	<-s.done
}

// Query lists audit entries with filters and pagination.
func (s *AuditService) Query(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, models.Pagination, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	entries, total, err := s.store.QueryAuditLog(ctx, q)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return entries, models.Pagination{
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// SuspiciousActivity surfaces (admin, ip) groups whose recent volume trips
// the heuristic. Advisory only, not a block.
func (s *AuditService) SuspiciousActivity(ctx context.Context) ([]models.SuspiciousActivity, error) {
	return s.store.GetSuspiciousActivity(ctx, suspiciousWindow, suspiciousMinActions, suspiciousMinFailures)
}

// StartPurgeLoop deletes entries past the retention window on an interval
// until ctx is done.
func (s *AuditService) StartPurgeLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
				purged, err := s.store.PurgeAuditEntries(ctx, cutoff)
				if err != nil {
					log.WithError(err).Error("audit purge failed")
					continue
				}
				if purged > 0 {
					log.Infof("purged %d audit entries older than %d days", purged, s.retentionDays)
				}
			}
		}
	}()
}
