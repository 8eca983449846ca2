package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-service/engine"
	"moderation-service/models"
	"moderation-service/rabbitmq"
)

type fakeSignalStore struct {
	*fakeModerationStore
	verdicts []engine.Verdict
	rules    []models.ModerationRule
}

func (f *fakeSignalStore) UpsertContent(_ context.Context, content *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[f.key(content.ID, content.ContentType)] = content
	content.IsActive = true
	return nil
}

func (f *fakeSignalStore) UpsertFromVerdict(_ context.Context, signals models.ContentSignals, verdict engine.Verdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts = append(f.verdicts, verdict)
	return nil
}

func (f *fakeSignalStore) ListRules(_ context.Context, _ bool) ([]models.ModerationRule, error) {
	return f.rules, nil
}

func signalMessage(t *testing.T, signal models.SignalMessage) *rabbitmq.Message {
	t.Helper()
	body, err := json.Marshal(signal)
	require.NoError(t, err)
	return &rabbitmq.Message{Body: body, RoutingKey: "content.analyzed"}
}

func TestHandleSignalSafeContent(t *testing.T) {
	store := &fakeSignalStore{fakeModerationStore: newFakeModerationStore()}
	actions, _, _ := newTestActionService(store.fakeModerationStore)
	p := NewSignalProcessor(store, actions, true)

	err := p.HandleSignal(signalMessage(t, models.SignalMessage{
		ContentID:   "photo-1",
		ContentType: models.ContentTypePhoto,
		UserID:      "user-1",
		Text:        "Bella loves the beach",
		Timestamp:   time.Now(),
	}))
	require.NoError(t, err)

	require.Len(t, store.verdicts, 1)
	assert.True(t, store.verdicts[0].Safe)
	assert.Equal(t, 1.0, store.verdicts[0].Confidence)
	assert.Empty(t, store.applied, "safe content triggers no action")
}

func TestHandleSignalCriticalAutoModerates(t *testing.T) {
	store := &fakeSignalStore{fakeModerationStore: newFakeModerationStore()}
	actions, _, _ := newTestActionService(store.fakeModerationStore)
	p := NewSignalProcessor(store, actions, true)

	err := p.HandleSignal(signalMessage(t, models.SignalMessage{
		ContentID:   "photo-2",
		ContentType: models.ContentTypePhoto,
		UserID:      "user-1",
		ImageLabels: []string{"animal_cruelty"},
	}))
	require.NoError(t, err)

	require.Len(t, store.verdicts, 1)
	assert.Equal(t, models.SeverityCritical, store.verdicts[0].Severity)

	record := store.records["photo/photo-2"]
	require.NotNil(t, record, "automated action must create the record")
	assert.Equal(t, models.StatusEscalated, record.Status)
	assert.Equal(t, AutoModeratorID, record.HumanReview.ReviewerID)
}

func TestHandleSignalAutoModerationDisabled(t *testing.T) {
	store := &fakeSignalStore{fakeModerationStore: newFakeModerationStore()}
	actions, _, _ := newTestActionService(store.fakeModerationStore)
	p := NewSignalProcessor(store, actions, false)

	err := p.HandleSignal(signalMessage(t, models.SignalMessage{
		ContentID:   "photo-3",
		ContentType: models.ContentTypePhoto,
		ImageLabels: []string{"animal_cruelty"},
	}))
	require.NoError(t, err)
	assert.Empty(t, store.applied, "auto-moderation off leaves the record for humans")
}

func TestHandleSignalMalformed(t *testing.T) {
	store := &fakeSignalStore{fakeModerationStore: newFakeModerationStore()}
	actions, _, _ := newTestActionService(store.fakeModerationStore)
	p := NewSignalProcessor(store, actions, true)

	err := p.HandleSignal(&rabbitmq.Message{Body: []byte("not json")})
	require.Error(t, err)
	var perr *rabbitmq.PermanentError
	assert.True(t, errors.As(err, &perr), "malformed payloads must not requeue")

	err = p.HandleSignal(signalMessage(t, models.SignalMessage{
		ContentID:   "c1",
		ContentType: "hologram",
	}))
	require.Error(t, err)
	assert.True(t, errors.As(err, &perr))
}
