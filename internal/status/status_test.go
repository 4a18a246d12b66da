package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	for _, s := range []Status{Waiting, Pending, Done, NoSubscriptionWhenDue, Error} {
		assert.True(t, s.Valid(), "%s must be valid", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("sent").Valid())
}

func TestTerminal(t *testing.T) {
	assert.False(t, Waiting.Terminal())
	assert.False(t, Pending.Terminal())
	assert.True(t, Done.Terminal())
	assert.True(t, Error.Terminal())
	assert.True(t, NoSubscriptionWhenDue.Terminal())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{Waiting, Pending, true},
		{Waiting, NoSubscriptionWhenDue, true},
		{Waiting, Done, false},
		{Waiting, Error, false},
		{Pending, Done, true},
		{Pending, Error, true},
		{Pending, Waiting, false},
		{Pending, NoSubscriptionWhenDue, false},
		// поздний отказ одного устройства перекрывает ранний done
		{Done, Error, true},
		{Done, Pending, false},
		{Done, Waiting, false},
		// error липкий
		{Error, Done, false},
		{Error, Pending, false},
		{Error, Waiting, false},
		{NoSubscriptionWhenDue, Pending, false},
		{NoSubscriptionWhenDue, Error, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
