package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/models"
	"calendar_reminders/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminderStore struct {
	mu        sync.Mutex
	reminders []*models.Reminder
	statuses  map[int64]status.Status
	findErr   error
}

func newFakeReminderStore(reminders ...*models.Reminder) *fakeReminderStore {
	s := &fakeReminderStore{
		reminders: reminders,
		statuses:  make(map[int64]status.Status),
	}
	for _, r := range reminders {
		s.statuses[r.ID] = r.Status
	}
	return s
}

func (s *fakeReminderStore) FindDueReminders(_ context.Context, now int64) ([]*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	res := make([]*models.Reminder, 0)
	for _, r := range s.reminders {
		if r.Due <= now && s.statuses[r.ID] == status.Waiting {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *fakeReminderStore) SetReminderStatus(_ context.Context, id int64, st status.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = st
	return nil
}

func (s *fakeReminderStore) SetReminderStatusIfNotError(_ context.Context, id int64, st status.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[id] == status.Error {
		return nil
	}
	s.statuses[id] = st
	return nil
}

func (s *fakeReminderStore) statusOf(id int64) status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

type fakeResolver struct {
	mu   sync.Mutex
	subs map[int64][]*models.Subscription
	errs map[int64]error
}

func (r *fakeResolver) FindSubscriptionsByRecipient(_ context.Context, userID int64) ([]*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[userID]; err != nil {
		return nil, err
	}
	return r.subs[userID], nil
}

type fakeProducer struct {
	mu      sync.Mutex
	msgs    []*kafka.DispatchMessage
	failing bool
}

func (p *fakeProducer) SendDispatchMessage(msg *kafka.DispatchMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("broker unavailable")
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func waitingReminder(id int64, due int64, recipients ...int64) *models.Reminder {
	return &models.Reminder{
		ID:         id,
		GroupID:    1,
		Action:     fmt.Sprintf("reminder %d", id),
		Due:        due,
		Status:     status.Waiting,
		Recipients: recipients,
	}
}

func sub(id int64, endpoint string) *models.Subscription {
	return &models.Subscription{
		ID:       id,
		Endpoint: endpoint,
		Keys:     models.SubscriptionKeys{P256dh: "p", Auth: "a"},
	}
}

func newTestDispatcher(store *fakeReminderStore, resolver *fakeResolver, producer *fakeProducer, now int64) *Dispatcher {
	d := NewDispatcher(store, resolver, producer, time.Minute, nil)
	d.now = func() int64 { return now }
	return d
}

func TestScanFansOutPerSubscription(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{
		7: {sub(1, "https://push/a"), sub(2, "https://push/b")},
	}}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	require.Equal(t, 2, producer.count())
	assert.Equal(t, status.Pending, store.statusOf(1))

	endpoints := []string{producer.msgs[0].Subscription.Endpoint, producer.msgs[1].Subscription.Endpoint}
	assert.ElementsMatch(t, []string{"https://push/a", "https://push/b"}, endpoints)
	for _, m := range producer.msgs {
		assert.Equal(t, int64(1), m.Reminder.ID)
		assert.NotEmpty(t, m.MessageID)
	}
}

func TestScanNoSubscriptions(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{}}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	assert.Equal(t, 0, producer.count())
	assert.Equal(t, status.NoSubscriptionWhenDue, store.statusOf(1))
}

func TestScanSkipsNotYetDue(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 2000, 7))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{
		7: {sub(1, "https://push/a")},
	}}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	assert.Equal(t, 0, producer.count())
	assert.Equal(t, status.Waiting, store.statusOf(1))
}

func TestScanResolveFailureDoesNotAffectSiblings(t *testing.T) {
	store := newFakeReminderStore(
		waitingReminder(1, 1000, 7),
		waitingReminder(2, 1000, 8),
	)
	resolver := &fakeResolver{
		subs: map[int64][]*models.Subscription{
			8: {sub(2, "https://push/b")},
		},
		errs: map[int64]error{7: errors.New("db down")},
	}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	// упавшее напоминание остаётся waiting, соседнее обработано
	assert.Equal(t, status.Waiting, store.statusOf(1))
	assert.Equal(t, status.Pending, store.statusOf(2))
	assert.Equal(t, 1, producer.count())
}

func TestScanEnqueueFailureLeavesWaitingForRetry(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{
		7: {sub(1, "https://push/a")},
	}}
	producer := &fakeProducer{failing: true}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	assert.Equal(t, status.Waiting, store.statusOf(1))
	assert.Equal(t, 0, producer.count())

	// следующий скан повторяет напоминание целиком
	producer.failing = false
	d.scanOnce(context.Background())

	assert.Equal(t, status.Pending, store.statusOf(1))
	assert.Equal(t, 1, producer.count())
}

func TestScanDeduplicatesSharedEndpoints(t *testing.T) {
	shared := "https://push/shared"
	store := newFakeReminderStore(waitingReminder(1, 1000, 7, 8))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{
		7: {sub(1, shared)},
		8: {sub(2, shared), sub(3, "https://push/c")},
	}}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())

	require.Equal(t, 2, producer.count())
	assert.Equal(t, status.Pending, store.statusOf(1))
}

func TestScanIsIdempotentAcrossRuns(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	resolver := &fakeResolver{subs: map[int64][]*models.Subscription{
		7: {sub(1, "https://push/a")},
	}}
	producer := &fakeProducer{}

	d := newTestDispatcher(store, resolver, producer, 1500)
	d.scanOnce(context.Background())
	d.scanOnce(context.Background())

	// второй скан не видит напоминание: оно уже pending
	assert.Equal(t, 1, producer.count())
}

func TestScanFindErrorAbortsQuietly(t *testing.T) {
	store := newFakeReminderStore(waitingReminder(1, 1000, 7))
	store.findErr = errors.New("db down")
	producer := &fakeProducer{}

	d := newTestDispatcher(store, &fakeResolver{}, producer, 1500)
	d.scanOnce(context.Background())

	assert.Equal(t, 0, producer.count())
	assert.Equal(t, status.Waiting, store.statusOf(1))
}
