package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/models"
	"calendar_reminders/internal/status"
)

type ReminderStatusStore interface {
	SetReminderStatus(ctx context.Context, id int64, st status.Status) error
	SetReminderStatusIfNotError(ctx context.Context, id int64, st status.Status) error
}

type Pusher interface {
	Send(ctx context.Context, endpoint string, keys models.SubscriptionKeys, payload []byte) error
}

// PushSender разгребает очередь dispatch-сообщений: один push на
// сообщение, одна попытка. Итоговый статус напоминания отражает
// доставку: done — все устройства подтвердились, error — хотя бы одно
// устройство отказало (error липкий, поздний done его не перекрывает).
type PushSender struct {
	store  ReminderStatusStore
	pusher Pusher
	logger *log.Logger
}

func NewPushSender(store ReminderStatusStore, pusher Pusher, logger *log.Logger) *PushSender {
	if logger == nil {
		logger = log.Default()
	}
	return &PushSender{
		store:  store,
		pusher: pusher,
		logger: logger,
	}
}

// ProcessDispatchMessage реализует kafka.MessageProcessor. Ошибка
// возвращается только для негодного payload (сообщение выбрасывается);
// отказ провайдера обрабатывается здесь же и не считается ошибкой
// обработки — повторной доставки для упавшего устройства нет.
func (s *PushSender) ProcessDispatchMessage(ctx context.Context, raw []byte) error {
	var msg kafka.DispatchMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("unmarshal dispatch message: %w", err)
	}
	if msg.Reminder.ID <= 0 {
		return fmt.Errorf("invalid reminder id in dispatch message")
	}
	if msg.Subscription.Endpoint == "" {
		return fmt.Errorf("empty endpoint in dispatch message")
	}

	payload, err := json.Marshal(msg.Reminder)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	start := time.Now()
	err = s.pusher.Send(ctx, msg.Subscription.Endpoint, msg.Subscription.Keys, payload)
	metrics.ObservePushDuration(time.Since(start))

	if err != nil {
		metrics.IncPushFailed()
		s.logger.Printf(
			"push delivery failed message=%s reminder=%d endpoint=%s: %v",
			msg.MessageID, msg.Reminder.ID, msg.Subscription.Endpoint, err,
		)
		if err := s.store.SetReminderStatus(ctx, msg.Reminder.ID, status.Error); err != nil {
			s.logger.Printf("set status %s failed reminder=%d: %v", status.Error, msg.Reminder.ID, err)
		}
		return nil
	}

	metrics.IncPushSent()
	if err := s.store.SetReminderStatusIfNotError(ctx, msg.Reminder.ID, status.Done); err != nil {
		s.logger.Printf("set status %s failed reminder=%d: %v", status.Done, msg.Reminder.ID, err)
	}
	return nil
}
