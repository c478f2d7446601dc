package eventpublisher

import (
	"context"
	"encoding/json"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	"time"

	"github.com/r3labs/sse/v2"
)

type eventPayload struct {
	Type    reminder.EventType `json:"type"`
	ID      reminder.ID        `json:"id"`
	Subject string             `json:"subject"`
	Status  string             `json:"status"`
	DueAt   *time.Time         `json:"dueAt"`
	At      time.Time          `json:"at"`
}

// SSE pushes lifecycle events to the owner's live feed. Events for owners
// without an open stream are dropped.
type SSE struct {
	sseServer *sse.Server
	log       logging.Logger
}

func NewSSE(sseServer *sse.Server, log logging.Logger) *SSE {
	if sseServer == nil {
		panic(e.NewNilArgumentError("sseServer"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	return &SSE{sseServer: sseServer, log: log}
}

func StreamID(owner c.Email) string {
	return "owner:" + string(owner)
}

func (p *SSE) Publish(ctx context.Context, event reminder.Event) {
	streamID := StreamID(event.Reminder.OwnerAddress)
	if !p.sseServer.StreamExists(streamID) {
		return
	}
	data, err := json.Marshal(newPayload(event))
	if err != nil {
		logging.Error(ctx, p.log, err, logging.Entry("reminderID", event.Reminder.ID))
		return
	}
	p.sseServer.Publish(streamID, &sse.Event{Event: []byte(event.Type), Data: data})
}

func newPayload(event reminder.Event) eventPayload {
	payload := eventPayload{
		Type:    event.Type,
		ID:      event.Reminder.ID,
		Subject: event.Reminder.DisplaySubject(),
		Status:  event.Reminder.Status.String(),
		At:      event.At.UTC(),
	}
	if event.Reminder.DueAt.IsPresent {
		dueAt := event.Reminder.DueAt.Value.UTC()
		payload.DueAt = &dueAt
	}
	return payload
}
