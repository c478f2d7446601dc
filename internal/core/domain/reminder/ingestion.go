package reminder

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"time"
)

type InboundMessage struct {
	From       c.Email
	To         c.Email
	Subject    string
	RawHeader  string
	MessageID  MessageID
	ReceivedAt time.Time
}

// IngestionAdapter returns messages not handed out before. Re-delivery is
// still tolerated since reminders are unique by message ID.
type IngestionAdapter interface {
	FetchNewMessages(ctx context.Context) ([]InboundMessage, error)
}
