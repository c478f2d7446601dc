package reminder

import (
	"context"
	"time"
)

type EventType string

const (
	EventScheduled   EventType = "scheduled"
	EventFired       EventType = "fired"
	EventSnoozed     EventType = "snoozed"
	EventCancelled   EventType = "cancelled"
	EventRescheduled EventType = "rescheduled"
)

type Event struct {
	Type     EventType
	Reminder Reminder
	At       time.Time
}

// EventPublisher delivers lifecycle events on a best-effort basis.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
