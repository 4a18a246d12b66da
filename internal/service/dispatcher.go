package service

import (
	"context"
	"log"
	"sync"
	"time"

	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/models"
	"calendar_reminders/internal/status"
)

type DueReminderStore interface {
	FindDueReminders(ctx context.Context, now int64) ([]*models.Reminder, error)
	SetReminderStatus(ctx context.Context, id int64, st status.Status) error
	SetReminderStatusIfNotError(ctx context.Context, id int64, st status.Status) error
}

type SubscriptionResolver interface {
	FindSubscriptionsByRecipient(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

type DispatchProducer interface {
	SendDispatchMessage(msg *kafka.DispatchMessage) error
}

// Dispatcher периодически сканирует наступившие waiting-напоминания и
// раскладывает их в очередь: одно сообщение на каждую подписку.
type Dispatcher struct {
	reminders    DueReminderStore
	subs         SubscriptionResolver
	producer     DispatchProducer
	scanInterval time.Duration
	logger       *log.Logger

	now func() int64
}

func NewDispatcher(
	reminders DueReminderStore,
	subs SubscriptionResolver,
	producer DispatchProducer,
	scanInterval time.Duration,
	logger *log.Logger,
) *Dispatcher {
	if scanInterval <= 0 {
		scanInterval = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Dispatcher{
		reminders:    reminders,
		subs:         subs,
		producer:     producer,
		scanInterval: scanInterval,
		logger:       logger,
		now:          func() int64 { return time.Now().UnixMilli() },
	}
}

// Start запускает фоновую горутину. Сканы выполняются строго
// последовательно в одной горутине: тик, пришедший во время долгого
// скана, не порождает параллельный скан, лишние тики тикер отбрасывает.
// Остановка — через отмену ctx; текущий скан дорабатывает до конца.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		d.logger.Println("dispatcher started")
		defer d.logger.Println("dispatcher stopped")

		ticker := time.NewTicker(d.scanInterval)
		defer ticker.Stop()

		d.scanOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.scanOnce(ctx)
			}
		}
	}()
}

// scanOnce обрабатывает все наступившие напоминания. Ошибка одного
// напоминания не прерывает обработку остальных: оно остаётся waiting
// и будет подхвачено следующим сканом целиком.
func (d *Dispatcher) scanOnce(ctx context.Context) {
	start := time.Now()
	metrics.IncDispatchScan()
	defer func() { metrics.ObserveScanDuration(time.Since(start)) }()

	now := d.now()

	due, err := d.reminders.FindDueReminders(ctx, now)
	if err != nil {
		d.logger.Printf("find due reminders failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	metrics.AddDueReminders(len(due))

	var wg sync.WaitGroup
	for _, rem := range due {
		wg.Add(1)
		go func(rem *models.Reminder) {
			defer wg.Done()
			d.dispatchOne(ctx, rem)
		}(rem)
	}
	wg.Wait()
}

func (d *Dispatcher) dispatchOne(ctx context.Context, rem *models.Reminder) {
	subs, err := d.resolveSubscriptions(ctx, rem.Recipients)
	if err != nil {
		metrics.IncDispatchFailure("resolve")
		d.logger.Printf("resolve subscriptions failed reminder=%d: %v", rem.ID, err)
		return
	}

	if len(subs) == 0 {
		d.logger.Printf("reminder=%d has no subscriptions, marking %s", rem.ID, status.NoSubscriptionWhenDue)
		if err := d.reminders.SetReminderStatusIfNotError(ctx, rem.ID, status.NoSubscriptionWhenDue); err != nil {
			metrics.IncDispatchFailure("status")
			d.logger.Printf("set status failed reminder=%d: %v", rem.ID, err)
		}
		return
	}

	// Сначала все enqueue, статус только после. Если хоть одна отправка
	// упала — напоминание остаётся waiting и следующий скан повторит его
	// целиком (единица ретрая — напоминание, не отдельная подписка).
	for _, sub := range subs {
		msg := kafka.NewDispatchMessage(rem, sub)
		if err := d.producer.SendDispatchMessage(msg); err != nil {
			metrics.IncDispatchFailure("enqueue")
			metrics.IncKafkaError("producer", "send")
			d.logger.Printf("enqueue failed reminder=%d endpoint=%s: %v", rem.ID, sub.Endpoint, err)
			return
		}
		metrics.IncDispatchEnqueued()
		metrics.IncKafkaSent()
	}

	if err := d.reminders.SetReminderStatusIfNotError(ctx, rem.ID, status.Pending); err != nil {
		metrics.IncDispatchFailure("status")
		d.logger.Printf("set status failed reminder=%d: %v", rem.ID, err)
	}
}

// resolveSubscriptions собирает устройства всех получателей и убирает
// дубли по endpoint: одно устройство может быть доступно через
// нескольких получателей, слать дважды не нужно.
func (d *Dispatcher) resolveSubscriptions(ctx context.Context, recipients []int64) ([]*models.Subscription, error) {
	seen := make(map[string]struct{})
	res := make([]*models.Subscription, 0)

	for _, userID := range recipients {
		subs, err := d.subs.FindSubscriptionsByRecipient(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if _, ok := seen[sub.Endpoint]; ok {
				continue
			}
			seen[sub.Endpoint] = struct{}{}
			res = append(res, sub)
		}
	}
	return res, nil
}
