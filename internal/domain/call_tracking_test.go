package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/backoffice/pkg/errors"
)

func newTestOrder(createdAt time.Time) *Order {
	return NewOrder(Customer{Name: "Test Customer", Phone: "0600000000", City: "Casablanca"}, nil, decimal.Zero, "", "tester", createdAt)
}

// fillDay logs every attempt of a day, spacing them past the cooldown
func fillDay(t *testing.T, o *Order, day int, start time.Time) time.Time {
	now := start
	for attempt := o.CallCount(day) + 1; attempt <= MaxAttemptsPerDay; attempt++ {
		require.NoError(t, o.LogCallAttempt(day, attempt, "agent", now, time.UTC))
		now = now.Add(CallCooldown)
	}
	return now
}

func TestOrder_LogCallAttempt(t *testing.T) {
	created := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("logs the first attempt", func(t *testing.T) {
		o := newTestOrder(created)

		err := o.LogCallAttempt(1, 1, "agent", created.Add(time.Minute), time.UTC)

		require.NoError(t, err)
		assert.Equal(t, 1, o.CallCount(1))
		last, ok := o.LastLog(LogTypeCallTracking)
		require.True(t, ok)
		assert.Equal(t, "agent", last.Actor)
		assert.Contains(t, last.Message, "Day 1 #1")
	})

	t.Run("rejects a replayed attempt", func(t *testing.T) {
		o := newTestOrder(created)
		require.NoError(t, o.LogCallAttempt(1, 1, "agent", created, time.UTC))
		logs := len(o.Logs)

		err := o.LogCallAttempt(1, 1, "agent", created.Add(time.Hour), time.UTC)

		var target *errors.ErrAlreadyLogged
		assert.ErrorAs(t, err, &target)
		assert.Equal(t, 1, o.CallCount(1))
		assert.Len(t, o.Logs, logs)
	})

	t.Run("rejects a skipped attempt", func(t *testing.T) {
		o := newTestOrder(created)

		err := o.LogCallAttempt(1, 2, "agent", created, time.UTC)

		var target *errors.ErrOutOfSequence
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 1, target.Expected)
		assert.Equal(t, 0, o.CallCount(1))
	})

	t.Run("enforces the cooldown across days", func(t *testing.T) {
		o := newTestOrder(created)
		require.NoError(t, o.LogCallAttempt(1, 1, "agent", created, time.UTC))

		err := o.LogCallAttempt(1, 2, "agent", created.Add(5*time.Minute), time.UTC)
		var target *errors.ErrCooldown
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 5*time.Minute, target.Remaining)

		require.NoError(t, o.LogCallAttempt(1, 2, "agent", created.Add(CallCooldown), time.UTC))
		assert.Equal(t, 2, o.CallCount(1))
	})

	t.Run("locks day two until day one is complete", func(t *testing.T) {
		o := newTestOrder(created)
		require.NoError(t, o.LogCallAttempt(1, 1, "agent", created, time.UTC))

		err := o.LogCallAttempt(2, 1, "agent", created.AddDate(0, 0, 3), time.UTC)

		var target *errors.ErrDayLocked
		assert.ErrorAs(t, err, &target)
		assert.Equal(t, 0, o.CallCount(2))
	})

	t.Run("locks day two on the creation day", func(t *testing.T) {
		o := newTestOrder(created)
		now := fillDay(t, o, 1, created)

		err := o.LogCallAttempt(2, 1, "agent", now, time.UTC)

		var target *errors.ErrDayLocked
		assert.ErrorAs(t, err, &target)
	})

	t.Run("opens day two after midnight", func(t *testing.T) {
		lateCreated := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
		o := newTestOrder(lateCreated)
		now := fillDay(t, o, 1, lateCreated)

		nextDay := time.Date(2024, 3, 11, 0, 5, 0, 0, time.UTC)
		require.True(t, nextDay.After(now))

		require.NoError(t, o.LogCallAttempt(2, 1, "agent", nextDay, time.UTC))
		assert.Equal(t, 1, o.CallCount(2))
	})

	t.Run("day three needs two calendar days", func(t *testing.T) {
		o := newTestOrder(created)
		now := fillDay(t, o, 1, created)
		now = fillDay(t, o, 2, now.AddDate(0, 0, 1))

		err := o.LogCallAttempt(3, 1, "agent", now, time.UTC)
		var target *errors.ErrDayLocked
		require.ErrorAs(t, err, &target)

		require.NoError(t, o.LogCallAttempt(3, 1, "agent", created.AddDate(0, 0, 2).Add(2*time.Hour), time.UTC))
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		o := newTestOrder(created)
		var target *errors.ErrValidation

		assert.ErrorAs(t, o.LogCallAttempt(0, 1, "agent", created, time.UTC), &target)
		assert.ErrorAs(t, o.LogCallAttempt(4, 1, "agent", created, time.UTC), &target)
		assert.ErrorAs(t, o.LogCallAttempt(1, 6, "agent", created, time.UTC), &target)
	})
}

func TestOrder_LogCallAttempt_DayTwoSameDay(t *testing.T) {
	// day two stays locked on the creation day whatever the creation time
	for _, hour := range []int{0, 6, 12, 18} {
		created := time.Date(2024, 7, 1, hour, 0, 0, 0, time.UTC)
		o := newTestOrder(created)
		for attempt := 1; attempt <= MaxAttemptsPerDay; attempt++ {
			o.CallHistory[1] = attempt
		}

		endOfDay := time.Date(2024, 7, 1, 23, 59, 0, 0, time.UTC)
		err := o.LogCallAttempt(2, 1, "agent", endOfDay, time.UTC)

		var target *errors.ErrDayLocked
		assert.ErrorAs(t, err, &target, "created at %02d:00", hour)
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	casablanca := time.FixedZone("WEST", 1*60*60)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		loc  *time.Location
		want int
	}{
		{"same instant", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.UTC, 0},
		{"crosses midnight", time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), time.UTC, 1},
		{"almost a day, same date", time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), time.UTC, 0},
		{"timezone shifts the date", time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC), time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC), casablanca, 1},
		{"nil location is UTC", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC), nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalendarDaysBetween(tt.from, tt.to, tt.loc))
		})
	}
}
