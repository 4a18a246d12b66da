package service

import (
	"context"
	"testing"

	"calendar_reminders/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateReminderValidation(t *testing.T) {
	s := NewReminderService(nil, nil)

	cases := []struct {
		name string
		req  *models.ReminderRequest
	}{
		{"nil request", nil},
		{"empty action", &models.ReminderRequest{Action: "  ", Due: 1000, Recipients: []int64{1}}},
		{"zero due", &models.ReminderRequest{Action: "call mom", Due: 0, Recipients: []int64{1}}},
		{"negative due", &models.ReminderRequest{Action: "call mom", Due: -5, Recipients: []int64{1}}},
		{"no recipients", &models.ReminderRequest{Action: "call mom", Due: 1000}},
		{"bad recipient id", &models.ReminderRequest{Action: "call mom", Due: 1000, Recipients: []int64{1, 0}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.CreateReminder(context.Background(), 1, c.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateReminderValidation(t *testing.T) {
	s := NewReminderService(nil, nil)

	err := s.UpdateReminder(context.Background(), 1, 0, &models.ReminderRequest{Action: "x", Due: 1, Recipients: []int64{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = s.UpdateReminder(context.Background(), 1, 3, &models.ReminderRequest{Due: 1, Recipients: []int64{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAndDeleteReminderValidation(t *testing.T) {
	s := NewReminderService(nil, nil)

	_, err := s.GetReminder(context.Background(), 1, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = s.DeleteReminder(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
