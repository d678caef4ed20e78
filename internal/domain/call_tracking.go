package domain

import (
	"fmt"
	"time"

	"github.com/jafarshop/backoffice/pkg/errors"
)

const (
	// MaxCallDays is the number of call days tracked per order
	MaxCallDays = 3
	// MaxAttemptsPerDay is the number of attempts required to close a day
	MaxAttemptsPerDay = 5
	// CallCooldown is the minimum delay between two logged attempts
	CallCooldown = 10 * time.Minute
)

// LogCallAttempt records attempt number attempt for call day day.
// Attempts are logged 1..5 in order, never replayed; day N opens once day N-1
// is complete and N-1 calendar days have passed since the order was created.
// loc is the business timezone used to count calendar days.
func (o *Order) LogCallAttempt(day, attempt int, actor string, now time.Time, loc *time.Location) error {
	if day < 1 || day > MaxCallDays {
		return &errors.ErrValidation{Field: "day", Message: fmt.Sprintf("must be between 1 and %d", MaxCallDays)}
	}
	if attempt < 1 || attempt > MaxAttemptsPerDay {
		return &errors.ErrValidation{Field: "attempt", Message: fmt.Sprintf("must be between 1 and %d", MaxAttemptsPerDay)}
	}

	current := o.CallCount(day)
	if attempt <= current {
		return &errors.ErrAlreadyLogged{Day: day, Attempt: attempt}
	}
	if attempt != current+1 {
		return &errors.ErrOutOfSequence{Day: day, Expected: current + 1, Got: attempt}
	}

	if day > 1 {
		if prev := o.CallCount(day - 1); prev < MaxAttemptsPerDay {
			return &errors.ErrDayLocked{
				Day:    day,
				Reason: fmt.Sprintf("day %d has %d of %d attempts", day-1, prev, MaxAttemptsPerDay),
			}
		}
		if elapsed := CalendarDaysBetween(o.CreatedAt, now, loc); elapsed < day-1 {
			return &errors.ErrDayLocked{
				Day:    day,
				Reason: fmt.Sprintf("%d calendar day(s) elapsed since creation, %d required", elapsed, day-1),
			}
		}
	}

	if last, ok := o.LastLog(LogTypeCallTracking); ok {
		if since := now.Sub(last.Timestamp); since < CallCooldown {
			return &errors.ErrCooldown{Remaining: CallCooldown - since}
		}
	}

	if o.CallHistory == nil {
		o.CallHistory = map[int]int{}
	}
	o.CallHistory[day] = attempt
	o.appendLog(LogTypeCallTracking, fmt.Sprintf("Call attempt Day %d #%d", day, attempt), actor, now)
	return nil
}

// CalendarDaysBetween counts midnight boundaries crossed between from and to
// in loc. Same-day timestamps yield 0.
func CalendarDaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	f := from.In(loc)
	t := to.In(loc)
	fromDate := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}
