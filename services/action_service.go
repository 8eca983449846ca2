package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"moderation-service/engine"
	"moderation-service/metrics"
	"moderation-service/models"
)

// ModerationStore is the persistence surface the action processor needs.
type ModerationStore interface {
	GetContent(ctx context.Context, contentID string, contentType models.ContentType) (*models.Content, error)
	GetOrCreateModerationRecord(ctx context.Context, contentID string, contentType models.ContentType) (*models.ModerationRecord, error)
	ApplyTransition(ctx context.Context, record *models.ModerationRecord, result *engine.TransitionResult, actionTaken models.ModerationAction) (int64, error)
	GetQueueStats(ctx context.Context) (*models.QueueStats, error)
}

// DecisionPublisher emits a decision event after every applied action.
type DecisionPublisher interface {
	Publish(message interface{}) error
}

// QueueNotifier pushes queue updates to the admin console.
type QueueNotifier interface {
	BroadcastQueueUpdate(stats *models.QueueStats)
}

// AdminContext identifies the acting admin for auditing.
type AdminContext struct {
	AdminID   string
	IPAddress string
	UserAgent string
}

// ActionService applies moderation actions to content: the state transition,
// linked report resolution and the audit entry.
type ActionService struct {
	store       ModerationStore
	audit       *AuditService
	publisher   DecisionPublisher
	notifier    QueueNotifier
	bulkWorkers int
	bulkMax     int
}

// NewActionService creates the action processor. publisher and notifier may
// be nil when the corresponding wire is not configured.
func NewActionService(store ModerationStore, audit *AuditService, publisher DecisionPublisher, notifier QueueNotifier, bulkWorkers, bulkMax int) *ActionService {
	if bulkWorkers < 1 {
		bulkWorkers = 8
	}
	if bulkMax < 1 {
		bulkMax = 50
	}
	return &ActionService{
		store:       store,
		audit:       audit,
		publisher:   publisher,
		notifier:    notifier,
		bulkWorkers: bulkWorkers,
		bulkMax:     bulkMax,
	}
}

// Review applies one moderation action to one piece of content. Validation
// failures reject before any mutation. Once the transition starts it runs to
// completion even if the caller goes away.
func (s *ActionService) Review(ctx context.Context, req models.ReviewRequest, admin AdminContext) (*models.ModerationResult, error) {
	if !models.ValidContentType(req.ContentType) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidContentType, req.ContentType)
	}
	if !models.ValidAction(req.Action) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAction, req.Action)
	}

	result, err := s.apply(ctx, req, admin)

	auditEntry := &models.AuditLogEntry{
		AdminID:      admin.AdminID,
		Action:       auditAction(req.ContentType),
		ResourceType: string(req.ContentType),
		ResourceID:   req.ContentID,
		Success:      err == nil,
		IPAddress:    admin.IPAddress,
		UserAgent:    admin.UserAgent,
		Details: map[string]interface{}{
			"action": string(req.Action),
			"reason": req.Reason,
		},
	}
	if result != nil {
		auditEntry.Details["status"] = string(result.Status)
		auditEntry.Details["reports_resolved"] = result.ReportsResolved
	}
	s.audit.Log(auditEntry)

	if err != nil {
		metrics.ActionsTotal.WithLabelValues(string(req.Action), "error").Inc()
		return nil, err
	}
	metrics.ActionsTotal.WithLabelValues(string(req.Action), "success").Inc()

	s.publishDecision(result, admin)
	s.broadcastQueueStats()

	return result, nil
}

// apply performs the transition itself. Detached from the request context so
// a mid-flight cancellation cannot leave partial state.
func (s *ActionService) apply(ctx context.Context, req models.ReviewRequest, admin AdminContext) (*models.ModerationResult, error) {
	ctx = context.WithoutCancel(ctx)

	if _, err := s.store.GetContent(ctx, req.ContentID, req.ContentType); err != nil {
		return nil, err
	}

	record, err := s.store.GetOrCreateModerationRecord(ctx, req.ContentID, req.ContentType)
	if err != nil {
		return nil, err
	}

	transition, err := engine.Transition(record, req.Action, engine.Actor{
		AdminID: admin.AdminID,
		Reason:  req.Reason,
		Notes:   req.Notes,
	})
	if err != nil {
		return nil, err
	}

	reportsResolved, err := s.store.ApplyTransition(ctx, record, transition, req.Action)
	if err != nil {
		return nil, err
	}

	if transition.EscalationCapped {
		log.WithFields(log.Fields{
			"content_id":   req.ContentID,
			"content_type": req.ContentType,
			"admin_id":     admin.AdminID,
		}).Info("escalation already at cap, level unchanged")
	}

	return &models.ModerationResult{
		ContentID:       req.ContentID,
		ContentType:     req.ContentType,
		Action:          req.Action,
		Status:          record.Status,
		EscalationLevel: record.EscalationLevel,
		ReportsResolved: reportsResolved,
	}, nil
}

// BulkReview applies one action to up to bulkMax content ids. Items are
// processed concurrently and independently; one item's failure is captured
// in the errors list and never aborts the rest. Results preserve input order.
func (s *ActionService) BulkReview(ctx context.Context, req models.BulkReviewRequest, admin AdminContext) (*models.BulkReviewResult, error) {
	if len(req.ContentIDs) == 0 {
		return nil, fmt.Errorf("%w: content_ids must not be empty", models.ErrInvalidAction)
	}
	if len(req.ContentIDs) > s.bulkMax {
		return nil, fmt.Errorf("%w: at most %d content_ids per bulk review", models.ErrInvalidAction, s.bulkMax)
	}
	if !models.ValidContentType(req.ContentType) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidContentType, req.ContentType)
	}
	if !models.ValidAction(req.Action) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAction, req.Action)
	}

	// Run to completion once started.
	ctx = context.WithoutCancel(ctx)

	type itemOutcome struct {
		result *models.ModerationResult
		err    error
	}
	outcomes := make([]itemOutcome, len(req.ContentIDs))

	workers := s.bulkWorkers
	if workers > len(req.ContentIDs) {
		workers = len(req.ContentIDs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				itemReq := models.ReviewRequest{
					ContentID:   req.ContentIDs[i],
					ContentType: req.ContentType,
					Action:      req.Action,
					Reason:      req.Reason,
					Notes:       req.Notes,
				}
				result, err := s.apply(ctx, itemReq, admin)
				outcomes[i] = itemOutcome{result: result, err: err}
			}
		}()
	}
	for i := range req.ContentIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	bulk := &models.BulkReviewResult{
		Results: []models.ModerationResult{},
		Errors:  []models.BulkItemError{},
	}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			bulk.Errors = append(bulk.Errors, models.BulkItemError{
				ContentID: req.ContentIDs[i],
				Error:     itemErrorMessage(outcome.err),
			})
			metrics.BulkItemsTotal.WithLabelValues("error").Inc()
			continue
		}
		bulk.Results = append(bulk.Results, *outcome.result)
		metrics.BulkItemsTotal.WithLabelValues("success").Inc()
		s.publishDecision(outcome.result, admin)
	}
	bulk.Processed = len(bulk.Results)
	bulk.Failed = len(bulk.Errors)

	// One summary entry for the whole batch, counts only.
	s.audit.Log(&models.AuditLogEntry{
		AdminID:      admin.AdminID,
		Action:       "bulk_moderate",
		ResourceType: string(req.ContentType),
		ResourceID:   fmt.Sprintf("batch:%d", len(req.ContentIDs)),
		Success:      bulk.Failed == 0,
		IPAddress:    admin.IPAddress,
		UserAgent:    admin.UserAgent,
		Details: map[string]interface{}{
			"action":    string(req.Action),
			"requested": len(req.ContentIDs),
			"processed": bulk.Processed,
			"errors":    bulk.Failed,
		},
	})

	s.broadcastQueueStats()

	log.WithFields(log.Fields{
		"admin_id":  admin.AdminID,
		"action":    req.Action,
		"requested": len(req.ContentIDs),
		"processed": bulk.Processed,
		"errors":    bulk.Failed,
	}).Info("bulk review completed")

	return bulk, nil
}

func (s *ActionService) publishDecision(result *models.ModerationResult, admin AdminContext) {
	if s.publisher == nil || result == nil {
		return
	}
	event := models.DecisionEvent{
		ContentID:       result.ContentID,
		ContentType:     result.ContentType,
		Action:          result.Action,
		Status:          result.Status,
		AdminID:         admin.AdminID,
		EscalationLevel: result.EscalationLevel,
		Timestamp:       time.Now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).WithField("content_id", result.ContentID).Warn("failed to publish decision event")
	}
}

func (s *ActionService) broadcastQueueStats() {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := s.store.GetQueueStats(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to load queue stats for broadcast")
		return
	}
	s.notifier.BroadcastQueueUpdate(stats)
}

// itemErrorMessage keeps raw storage errors out of per-item responses.
func itemErrorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "content not found"
	case errors.Is(err, models.ErrAlreadyModerated):
		return "content already moderated"
	case errors.Is(err, models.ErrInvalidTransition):
		return "action not allowed from current status"
	default:
		return "processing failed"
	}
}

func auditAction(t models.ContentType) string {
	return "moderate_" + string(t)
}
