package cache

import (
	"fmt"
	"strings"
)

// подписки получателя: user:subs:{user_id}
func UserSubscriptionsKey(userID int64) string {
	return fmt.Sprintf("user:subs:%d", userID)
}

// GET /api/reminders
// reminders:{group_id}:status={status}:start={start}:limit={limit}
func ReminderListKey(groupID int64, st string, start int64, limit int) string {
	s := strings.ToLower(strings.TrimSpace(st))
	if s == "" {
		s = "all"
	}
	if limit <= 0 {
		limit = 20
	}
	return fmt.Sprintf("reminders:%d:status=%s:start=%d:limit=%d", groupID, s, start, limit)
}

// Для хранения всех ключей списков группы (инвалидация без SCAN)
func ReminderListKeysSetKey(groupID int64) string {
	return fmt.Sprintf("reminders:%d:keys", groupID)
}
