package kafka

import (
	"testing"

	"calendar_reminders/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewDispatchMessage(t *testing.T) {
	rem := &models.Reminder{
		ID:      42,
		GroupID: 3,
		Action:  "attend important meeting",
		Due:     1470926264000,
	}
	sub := &models.Subscription{
		Endpoint: "https://push.example/abc",
		Keys:     models.SubscriptionKeys{P256dh: "pub", Auth: "secret"},
	}

	msg := NewDispatchMessage(rem, sub)

	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, int64(42), msg.Reminder.ID)
	assert.Equal(t, int64(3), msg.Reminder.GroupID)
	assert.Equal(t, "attend important meeting", msg.Reminder.Action)
	assert.Equal(t, int64(1470926264000), msg.Reminder.Due)
	assert.Equal(t, "https://push.example/abc", msg.Subscription.Endpoint)
	assert.Equal(t, "pub", msg.Subscription.Keys.P256dh)
	assert.Equal(t, "secret", msg.Subscription.Keys.Auth)

	// каждому сообщению свой id
	other := NewDispatchMessage(rem, sub)
	assert.NotEqual(t, msg.MessageID, other.MessageID)
}
