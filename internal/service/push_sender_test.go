package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/models"
	"calendar_reminders/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	failFor map[string]error
	sent    []string
}

func (p *fakePusher) Send(_ context.Context, endpoint string, _ models.SubscriptionKeys, _ []byte) error {
	if err := p.failFor[endpoint]; err != nil {
		return err
	}
	p.sent = append(p.sent, endpoint)
	return nil
}

func dispatchMessage(t *testing.T, reminderID int64, endpoint string) []byte {
	t.Helper()
	msg := kafka.NewDispatchMessage(
		&models.Reminder{ID: reminderID, Action: "water the plants", Due: 1000, GroupID: 1},
		&models.Subscription{Endpoint: endpoint, Keys: models.SubscriptionKeys{P256dh: "p", Auth: "a"}},
	)
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestProcessDeliverySuccess(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	store.statuses[1] = status.Pending
	pusher := &fakePusher{}
	s := NewPushSender(store, pusher, nil)

	err := s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/a"))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://push/a"}, pusher.sent)
	assert.Equal(t, status.Done, store.statusOf(1))
}

func TestProcessDeliveryFailure(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	store.statuses[1] = status.Pending
	pusher := &fakePusher{failFor: map[string]error{
		"https://push/a": errors.New("410 gone"),
	}}
	s := NewPushSender(store, pusher, nil)

	err := s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/a"))

	// отказ устройства — не ошибка обработки, сообщение потреблено
	require.NoError(t, err)
	assert.Equal(t, status.Error, store.statusOf(1))
}

func TestProcessErrorIsSticky(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	store.statuses[1] = status.Pending
	pusher := &fakePusher{failFor: map[string]error{
		"https://push/a": errors.New("410 gone"),
	}}
	s := NewPushSender(store, pusher, nil)

	// одно устройство отказало, второе подтвердилось позже
	require.NoError(t, s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/a")))
	require.NoError(t, s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/b")))

	// второе сообщение было доставлено...
	assert.Equal(t, []string{"https://push/b"}, pusher.sent)
	// ...но поздний done не перекрывает зафиксированный error
	assert.Equal(t, status.Error, store.statusOf(1))
}

func TestProcessLateFailureOverridesDone(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	store.statuses[1] = status.Pending
	pusher := &fakePusher{failFor: map[string]error{
		"https://push/b": errors.New("timeout"),
	}}
	s := NewPushSender(store, pusher, nil)

	require.NoError(t, s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/a")))
	assert.Equal(t, status.Done, store.statusOf(1))

	require.NoError(t, s.ProcessDispatchMessage(context.Background(), dispatchMessage(t, 1, "https://push/b")))
	assert.Equal(t, status.Error, store.statusOf(1))
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	store := newFakeReminderStore()
	s := NewPushSender(store, &fakePusher{}, nil)

	assert.Error(t, s.ProcessDispatchMessage(context.Background(), []byte("{not json")))
	assert.Error(t, s.ProcessDispatchMessage(context.Background(), []byte(`{"reminder":{"id":0}}`)))
	assert.Error(t, s.ProcessDispatchMessage(context.Background(), []byte(`{"reminder":{"id":5},"subscription":{"endpoint":""}}`)))
}
