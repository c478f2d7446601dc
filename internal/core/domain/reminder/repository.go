package reminder

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"time"
)

type CreateInput struct {
	MessageID     MessageID
	RootMessageID MessageID
	ParentID      c.Optional[ID]
	OwnerAddress  c.Email
	TargetAddress c.Email
	Subject       string
	CreatedAt     time.Time
	Status        Status
	DueAt         c.Optional[time.Time]
	Secret        c.Secret
	Notes         string
}

// UpdateStatusInput describes a conditional transition. The update is applied
// only while the stored status equals ExpectedStatus.
type UpdateStatusInput struct {
	ID             ID
	ExpectedStatus Status
	Status         Status
	DoDueAtUpdate  bool
	DueAt          c.Optional[time.Time]
	DoNotesUpdate  bool
	Notes          string
	// DueBefore additionally requires the stored due time to be at or before it.
	DueBefore c.Optional[time.Time]
	// SnoozedAt marks the row as snoozed. A row is snoozed at most once, so the
	// update is rejected when the row already carries a mark.
	SnoozedAt c.Optional[time.Time]
}

type Repository interface {
	// Create returns ErrDuplicateMessageID when the message ID is already stored.
	Create(ctx context.Context, input CreateInput) (Reminder, error)
	GetByID(ctx context.Context, id ID) (Reminder, error)
	GetByMessageID(ctx context.Context, messageID MessageID) (Reminder, error)
	// UpdateStatusConditional reports whether the row was transitioned.
	UpdateStatusConditional(ctx context.Context, input UpdateStatusInput) (bool, error)
	ReadScheduledDueBefore(ctx context.Context, ts time.Time, limit uint) ([]Reminder, error)
	ReadUnprocessed(ctx context.Context, limit uint) ([]Reminder, error)
	ReadByOwnerAndStatus(ctx context.Context, owner c.Email, status Status) ([]Reminder, error)
	Search(ctx context.Context, owner c.Email, subjectLike string, limit uint) ([]Reminder, error)
}
