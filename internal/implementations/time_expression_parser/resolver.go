package timeexpressionparser

import (
	"fmt"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/reminder"
	"time"

	"github.com/golang-module/carbon/v2"
)

type resolver struct {
	cfg        Config
	loc        *time.Location
	reference  carbon.Carbon
	at         carbon.Carbon
	cls        class
	recurrence c.Optional[reminder.Recurrence]
}

func newResolver(cfg Config, reference time.Time) *resolver {
	ref := c.ToCarbon(reference)
	return &resolver{
		cfg:       cfg,
		loc:       reference.Location(),
		reference: ref,
		at:        ref,
	}
}

func (r *resolver) visitRelative(n relative) error {
	r.cls = classRelative
	switch n.unit {
	case unitMinute:
		r.at = r.reference.AddMinutes(n.n)
	case unitHour:
		r.at = r.reference.AddHours(n.n)
	case unitDay:
		r.at = r.reference.AddDays(n.n)
	case unitWeek:
		r.at = r.reference.AddWeeks(n.n)
	case unitMonth:
		r.at = r.reference.AddMonthsNoOverflow(n.n)
	default:
		return fmt.Errorf("unexpected unit %q, %w", n.unit, reminder.ErrParseExpression)
	}
	return nil
}

func (r *resolver) visitClock(n clock) error {
	r.cls = classClock
	r.at = r.reference.SetTimeMicro(n.hour, n.minute, 0, 0)
	return nil
}

func (r *resolver) visitDay(n day) error {
	var offset int
	hour, minute := r.cfg.DefaultHour, 0
	switch n.kind {
	case today:
		r.cls = classToday
		hour = r.cfg.EndOfDayHour
	case tomorrow:
		r.cls = classTomorrow
		offset = 1
	case weekday:
		r.cls = classWeekday
		offset = daysUntil(r.reference.Carbon2Time().In(r.loc).Weekday(), n.weekday)
	default:
		return fmt.Errorf("unexpected day %q, %w", n.kind, reminder.ErrParseExpression)
	}
	if n.at != nil {
		hour, minute = n.at.hour, n.at.minute
	}
	r.at = r.reference.AddDays(offset).SetTimeMicro(hour, minute, 0, 0)
	return nil
}

func (r *resolver) visitEndOf(n endOf) error {
	switch n.kind {
	case endOfDay:
		r.cls = classEndOfDay
		r.at = r.reference.SetTimeMicro(r.cfg.EndOfDayHour, 0, 0, 0)
	case endOfWeek:
		r.cls = classEndOfWeek
		offset := daysUntil(r.reference.Carbon2Time().In(r.loc).Weekday(), r.cfg.EndOfWeekDay)
		r.at = r.reference.AddDays(offset).SetTimeMicro(r.cfg.EndOfDayHour, 0, 0, 0)
	default:
		return fmt.Errorf("unexpected end of %q, %w", n.kind, reminder.ErrParseExpression)
	}
	return nil
}

// visitMonthDay picks the first occurrence of the date after the reference,
// so 29 February lands on the next leap year instead of being clamped.
func (r *resolver) visitMonthDay(n monthDay) error {
	if n.day > daysIn(leapYear, n.month) {
		return fmt.Errorf("%s has no day %d, %w", n.month, n.day, reminder.ErrParseExpression)
	}
	r.cls = classMonthDay
	for year := r.reference.Carbon2Time().In(r.loc).Year(); ; year++ {
		if n.day > daysIn(year, n.month) {
			continue
		}
		at := c.ToCarbon(time.Date(year, n.month, n.day, r.cfg.DefaultHour, 0, 0, 0, r.loc))
		if at.Gt(r.reference) {
			r.at = at
			return nil
		}
	}
}

func (r *resolver) visitRecurrence(n recurrence) error {
	r.cls = classRecurrence
	r.at = c.ToCarbon(n.recurrence.NextFrom(r.reference.Carbon2Time().In(r.loc)))
	r.recurrence = c.NewOptional(n.recurrence, true)
	return nil
}

func (r *resolver) visitFallback(n fallback) error {
	parsed := carbon.Parse(n.value, r.loc.String())
	if parsed.Error != nil || parsed.IsInvalid() {
		return fmt.Errorf("%q, %w", n.value, reminder.ErrParseExpression)
	}
	r.cls = classFallback
	r.at = c.ToCarbon(parsed.Carbon2Time().In(r.loc))
	return nil
}

// daysUntil counts days from one weekday to the next occurrence of another,
// zero when they are equal.
func daysUntil(from time.Weekday, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

const leapYear = 2000

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
