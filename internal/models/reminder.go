package models

import (
	"calendar_reminders/internal/status"
)

// Reminder хранится в таблице reminders; Recipients — из reminder_recipients.
// Created и Due — миллисекунды unix epoch, как в исходном API.
type Reminder struct {
	ID         int64         `json:"id"`
	GroupID    int64         `json:"-"`
	Action     string        `json:"action"`
	Created    int64         `json:"created"`
	Due        int64         `json:"due"`
	Status     status.Status `json:"status"`
	Recipients []int64       `json:"recipients"`
}

type ReminderRequest struct {
	Action     string  `json:"action"`
	Due        int64   `json:"due"`
	Recipients []int64 `json:"recipients"`
}
