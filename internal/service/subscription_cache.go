package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"calendar_reminders/internal/cache"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/models"
)

type SubscriptionStore interface {
	FindSubscriptionsByRecipient(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

// CachedSubscriptionResolver — read-through кеш подписок получателя.
// Диспетчер дёргает его на каждом скане, поэтому горячие получатели
// не ходят в БД. Ошибки кеша не фатальны: проваливаемся в хранилище.
type CachedSubscriptionResolver struct {
	store  SubscriptionStore
	cache  cache.Cache
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedSubscriptionResolver(
	store SubscriptionStore,
	c cache.Cache,
	ttl time.Duration,
	logger *log.Logger,
) *CachedSubscriptionResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedSubscriptionResolver{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *CachedSubscriptionResolver) FindSubscriptionsByRecipient(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	if r.cache == nil {
		return r.store.FindSubscriptionsByRecipient(ctx, userID)
	}

	key := cache.UserSubscriptionsKey(userID)

	if b, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		var subs []*models.Subscription
		if err := json.Unmarshal(b, &subs); err == nil {
			metrics.IncRedisHit()
			return subs, nil
		}
		// битые данные в кеше — выбрасываем и читаем заново
		_ = r.cache.Del(ctx, key)
	}
	metrics.IncRedisMiss()

	subs, err := r.store.FindSubscriptionsByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(subs); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			r.logger.Printf("cache set failed key=%s: %v", key, err)
		}
	}
	return subs, nil
}

// Invalidate сбрасывает кеш при регистрации/удалении устройства.
func (r *CachedSubscriptionResolver) Invalidate(ctx context.Context, userID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, cache.UserSubscriptionsKey(userID)); err != nil {
		r.logger.Printf("cache invalidate failed user=%d: %v", userID, err)
	}
}
