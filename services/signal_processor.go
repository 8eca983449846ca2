package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"moderation-service/engine"
	"moderation-service/models"
	"moderation-service/rabbitmq"
)

// AutoModeratorID is the actor recorded for automated decisions.
const AutoModeratorID = "auto-moderator"

// SignalStore is the persistence surface the signal processor needs.
type SignalStore interface {
	UpsertContent(ctx context.Context, content *models.Content) error
	UpsertFromVerdict(ctx context.Context, signals models.ContentSignals, verdict engine.Verdict) error
	ListRules(ctx context.Context, activeOnly bool) ([]models.ModerationRule, error)
}

// SignalProcessor consumes classifier signals and drives automated
// evaluation: signal in, rule findings, resolved verdict, record upsert, and
// an automated action when auto-moderation is on and the verdict is critical.
type SignalProcessor struct {
	store          SignalStore
	actions        *ActionService
	autoModeration bool

	rulesMu     sync.Mutex
	cachedRules []models.ModerationRule
	rulesLoaded time.Time
	rulesMaxAge time.Duration
}

// NewSignalProcessor creates the processor.
func NewSignalProcessor(store SignalStore, actions *ActionService, autoModeration bool) *SignalProcessor {
	return &SignalProcessor{
		store:          store,
		actions:        actions,
		autoModeration: autoModeration,
		rulesMaxAge:    time.Minute,
	}
}

// HandleSignal is the RabbitMQ callback for classifier signal messages.
// Malformed payloads are permanent failures; storage errors are transient
// and requeued.
func (p *SignalProcessor) HandleSignal(msg *rabbitmq.Message) error {
	var signal models.SignalMessage
	if err := msg.UnmarshalTo(&signal); err != nil {
		return rabbitmq.Permanent(fmt.Errorf("failed to decode signal message: %w", err))
	}
	if signal.ContentID == "" || !models.ValidContentType(signal.ContentType) {
		return rabbitmq.Permanent(fmt.Errorf("%w: %q", models.ErrInvalidContentType, signal.ContentType))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	signals := models.ContentSignals{
		ContentID:         signal.ContentID,
		ContentType:       signal.ContentType,
		UserID:            signal.UserID,
		Text:              signal.Text,
		ImageLabels:       signal.ImageLabels,
		PostsInLastMinute: signal.PostsInLastMinute,
		ViolationsIn24h:   signal.ViolationsIn24h,
		AIAnalysis:        signal.Analysis,
	}

	// Classifier labels feed the image rules alongside any caller labels.
	if signal.Analysis != nil {
		signals.ImageLabels = append(signals.ImageLabels, signal.Analysis.Flags...)
	}

	findings := engine.Evaluate(signals)
	if rules, err := p.activeRules(ctx); err != nil {
		// Proceed on built-ins alone rather than dropping the signal.
		log.WithError(err).Warn("failed to load custom rules, using built-ins only")
	} else {
		findings = append(findings, engine.EvaluateCustom(signals, rules)...)
	}
	verdict := engine.Resolve(findings)

	if err := p.store.UpsertContent(ctx, &models.Content{
		ID:          signal.ContentID,
		ContentType: signal.ContentType,
		OwnerID:     signal.UserID,
		Text:        signal.Text,
	}); err != nil {
		return err
	}

	if err := p.store.UpsertFromVerdict(ctx, signals, verdict); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"content_id":   signal.ContentID,
		"content_type": signal.ContentType,
		"safe":         verdict.Safe,
		"severity":     verdict.Severity,
		"action":       verdict.Action,
		"confidence":   verdict.Confidence,
		"findings":     len(findings),
	}).Info("classifier signal evaluated")

	if p.autoModeration && verdict.Severity == models.SeverityCritical {
		return p.autoAction(ctx, signal, verdict)
	}
	return nil
}

// autoAction applies the verdict's recommended action without a human in the
// loop. Only critical verdicts reach this point.
func (p *SignalProcessor) autoAction(ctx context.Context, signal models.SignalMessage, verdict engine.Verdict) error {
	req := models.ReviewRequest{
		ContentID:   signal.ContentID,
		ContentType: signal.ContentType,
		Action:      verdict.Action,
		Reason:      "automated: critical severity verdict",
	}
	_, err := p.actions.Review(ctx, req, AdminContext{AdminID: AutoModeratorID})
	if err != nil {
		// A record already escalated or otherwise settled is fine.
		log.WithError(err).WithField("content_id", signal.ContentID).Warn("automated action not applied")
		return nil
	}

	log.WithFields(log.Fields{
		"content_id":   signal.ContentID,
		"content_type": signal.ContentType,
		"action":       verdict.Action,
	}).Info("automated action applied")
	return nil
}

func (p *SignalProcessor) activeRules(ctx context.Context) ([]models.ModerationRule, error) {
	p.rulesMu.Lock()
	defer p.rulesMu.Unlock()

	if time.Since(p.rulesLoaded) < p.rulesMaxAge {
		return p.cachedRules, nil
	}

	rules, err := p.store.ListRules(ctx, true)
	if err != nil {
		return nil, err
	}
	p.cachedRules = rules
	p.rulesLoaded = time.Now()
	return rules, nil
}
