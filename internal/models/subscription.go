package models

import "time"

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type Subscription struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"-"`
	Title     string           `json:"title"`
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	CreatedAt time.Time        `json:"-"`
}

// SubscriptionRequest повторяет форму объекта PushSubscription из браузера:
// { "title": "...", "subscription": { "endpoint": "...", "keys": { "p256dh": "...", "auth": "..." } } }
type SubscriptionRequest struct {
	Title        string `json:"title"`
	Subscription struct {
		Endpoint string           `json:"endpoint"`
		Keys     SubscriptionKeys `json:"keys"`
	} `json:"subscription"`
}

// SubscriptionResponse не должен раскрывать auth-секрет.
type SubscriptionResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
		} `json:"keys"`
	} `json:"subscription"`
}

func NewSubscriptionResponse(s *Subscription) *SubscriptionResponse {
	r := &SubscriptionResponse{
		ID:    s.ID,
		Title: s.Title,
	}
	r.Subscription.Endpoint = s.Endpoint
	r.Subscription.Keys.P256dh = s.Keys.P256dh
	return r
}
