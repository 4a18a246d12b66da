package status

// Status описывает жизненный цикл напоминания.
type Status string

const (
	// Waiting — напоминание ещё не наступило (начальный статус).
	Waiting Status = "waiting"
	// Pending — напоминание наступило, сообщения поставлены в очередь.
	Pending Status = "pending"
	// Done — все push-уведомления доставлены.
	Done Status = "done"
	// NoSubscriptionWhenDue — на момент срабатывания не было ни одного устройства.
	NoSubscriptionWhenDue Status = "no_subscription_when_due"
	// Error — хотя бы одно уведомление не было отправлено.
	Error Status = "error"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	switch s {
	case Waiting, Pending, Done, NoSubscriptionWhenDue, Error:
		return true
	}
	return false
}

// Terminal: из этих статусов напоминание автоматически не выходит,
// только явное редактирование сбрасывает его обратно в waiting.
func (s Status) Terminal() bool {
	switch s {
	case Done, NoSubscriptionWhenDue, Error:
		return true
	}
	return false
}

// CanTransition — полная таблица допустимых переходов.
//
// done -> error разрешён: error означает "не все уведомления отправлены",
// а подтверждения доставки приходят по одному сообщению, поэтому поздний
// отказ одного устройства может перекрыть ранний done. Обратное
// движение из error запрещено всегда (guard "if not error" в хранилище).
func CanTransition(from, to Status) bool {
	switch from {
	case Waiting:
		return to == Pending || to == NoSubscriptionWhenDue
	case Pending:
		return to == Done || to == Error
	case Done:
		return to == Error
	default:
		return false
	}
}
