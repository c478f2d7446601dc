package timeexpressionparser

import (
	"snoozer/internal/core/domain/reminder"
	"time"
)

type nodeVisitor interface {
	visitRelative(n relative) error
	visitClock(n clock) error
	visitDay(n day) error
	visitEndOf(n endOf) error
	visitMonthDay(n monthDay) error
	visitRecurrence(n recurrence) error
	visitFallback(n fallback) error
}

type node interface {
	accept(v nodeVisitor) error
}

type unit string

const (
	unitMinute unit = "min"
	unitHour   unit = "hour"
	unitDay    unit = "day"
	unitWeek   unit = "week"
	unitMonth  unit = "month"
)

type relative struct {
	n    int
	unit unit
}

func (n relative) accept(v nodeVisitor) error {
	return v.visitRelative(n)
}

type clock struct {
	hour   int
	minute int
}

func (n clock) accept(v nodeVisitor) error {
	return v.visitClock(n)
}

type dayKind string

const (
	today    dayKind = "today"
	tomorrow dayKind = "tomorrow"
	weekday  dayKind = "weekday"
)

type day struct {
	kind    dayKind
	weekday time.Weekday
	at      *clock
}

func (n day) accept(v nodeVisitor) error {
	return v.visitDay(n)
}

type endOfKind string

const (
	endOfDay  endOfKind = "eod"
	endOfWeek endOfKind = "eow"
)

type endOf struct {
	kind endOfKind
}

func (n endOf) accept(v nodeVisitor) error {
	return v.visitEndOf(n)
}

type monthDay struct {
	month time.Month
	day   int
}

func (n monthDay) accept(v nodeVisitor) error {
	return v.visitMonthDay(n)
}

type recurrence struct {
	recurrence reminder.Recurrence
}

func (n recurrence) accept(v nodeVisitor) error {
	return v.visitRecurrence(n)
}

type fallback struct {
	value string
}

func (n fallback) accept(v nodeVisitor) error {
	return v.visitFallback(n)
}
