package kafka

import (
	"calendar_reminders/internal/models"

	"github.com/google/uuid"
)

// DispatchMessage — одна пара (напоминание, подписка): минимальная единица
// работы для sender-а. Payload самодостаточен, sender не ходит за данными в БД.
type DispatchMessage struct {
	MessageID    string              `json:"message_id"`
	Reminder     ReminderPayload     `json:"reminder"`
	Subscription SubscriptionPayload `json:"subscription"`
}

type ReminderPayload struct {
	ID      int64  `json:"id"`
	Action  string `json:"action"`
	Due     int64  `json:"due"`
	GroupID int64  `json:"group_id"`
}

type SubscriptionPayload struct {
	Endpoint string                  `json:"endpoint"`
	Keys     models.SubscriptionKeys `json:"keys"`
}

func NewDispatchMessage(r *models.Reminder, s *models.Subscription) *DispatchMessage {
	return &DispatchMessage{
		MessageID: uuid.NewString(),
		Reminder: ReminderPayload{
			ID:      r.ID,
			Action:  r.Action,
			Due:     r.Due,
			GroupID: r.GroupID,
		},
		Subscription: SubscriptionPayload{
			Endpoint: s.Endpoint,
			Keys:     s.Keys,
		},
	}
}
