package reminder

import (
	c "snoozer/internal/core/domain/common"
	"time"
	"unicode/utf8"
)

const (
	MAX_SUBJECT_LEN = 998
	MAX_NOTES_LEN   = 4096
	SECRET_LEN      = 32
)

// ReleaseNowExpression is accepted by the snooze action only and makes a
// reminder due immediately.
const ReleaseNowExpression = "today.midnight"

type ID int64

type MessageID string

type Reminder struct {
	ID            ID
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

// IsDue reports whether a scheduled reminder must be fired at the given moment.
func (r Reminder) IsDue(now time.Time) bool {
	return r.Status == StatusScheduled && r.DueAt.IsPresent && !r.DueAt.Value.After(now)
}

// Recurrence returns the period encoded in the target address, if any.
func (r Reminder) Recurrence() (Recurrence, bool) {
	rec, err := ParseRecurrence(r.TargetAddress.LocalPart())
	if err != nil {
		return rec, false
	}
	return rec, true
}

func (r Reminder) DisplaySubject() string {
	if r.Subject == "" {
		return "(no subject)"
	}
	return r.Subject
}

// CloneInput prepares a new scheduled reminder that continues the chain of r.
func (r Reminder) CloneInput(
	messageID MessageID,
	secret c.Secret,
	targetAddress c.Email,
	dueAt time.Time,
	createdAt time.Time,
) CreateInput {
	root := r.RootMessageID
	if root == "" {
		root = r.MessageID
	}
	return CreateInput{
		MessageID:     messageID,
		RootMessageID: root,
		ParentID:      c.NewOptional(r.ID, true),
		OwnerAddress:  r.OwnerAddress,
		TargetAddress: targetAddress,
		Subject:       r.Subject,
		CreatedAt:     createdAt,
		Status:        StatusScheduled,
		DueAt:         c.NewOptional(dueAt, true),
		Secret:        secret,
		Notes:         r.Notes,
	}
}

type IdentityGenerator interface {
	GenerateMessageID() MessageID
	GenerateSecret() (c.Secret, error)
}

// TruncateSubject cuts s to MAX_SUBJECT_LEN bytes without splitting a rune.
func TruncateSubject(s string) string {
	if len(s) <= MAX_SUBJECT_LEN {
		return s
	}
	cut := MAX_SUBJECT_LEN
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
