package reminder

import (
	"errors"
	"fmt"
	c "snoozer/internal/core/domain/common"
	"time"
)

var ErrParseRecurrence = errors.New("invalid recurrence")

type Recurrence struct {
	v string
}

var (
	RecurrenceUnknown  = Recurrence{}
	RecurrenceDaily    = Recurrence{v: "daily"}
	RecurrenceWeekly   = Recurrence{v: "weekly"}
	RecurrenceMonthly  = Recurrence{v: "monthly"}
	RecurrenceWeekdays = Recurrence{v: "weekdays"}
)

func (r Recurrence) String() string {
	return r.v
}

func ParseRecurrence(value string) (Recurrence, error) {
	switch value {
	case "daily":
		return RecurrenceDaily, nil
	case "weekly":
		return RecurrenceWeekly, nil
	case "monthly":
		return RecurrenceMonthly, nil
	case "weekdays":
		return RecurrenceWeekdays, nil
	default:
		return RecurrenceUnknown, ErrParseRecurrence
	}
}

// NextFrom advances t by one period keeping the wall-clock time of t's location.
func (r Recurrence) NextFrom(t time.Time) time.Time {
	loc := t.Location()
	value := c.ToCarbon(t)
	switch r {
	case RecurrenceDaily:
		return c.FromCarbon(value.AddDays(1), loc)
	case RecurrenceWeekly:
		return c.FromCarbon(value.AddWeeks(1), loc)
	case RecurrenceMonthly:
		return c.FromCarbon(value.AddMonthsNoOverflow(1), loc)
	case RecurrenceWeekdays:
		next := c.FromCarbon(value.AddDays(1), loc)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = c.FromCarbon(c.ToCarbon(next).AddDays(1), loc)
		}
		return next
	default:
		panic(fmt.Sprintf("unexpected recurrence: %v", r))
	}
}
