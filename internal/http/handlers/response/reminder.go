package response

import (
	"snoozer/internal/core/domain/reminder"
	"time"
)

type Reminder struct {
	ID            int64      `json:"id"`
	MessageID     string     `json:"message_id"`
	ParentID      *int64     `json:"parent_id"`
	OwnerAddress  string     `json:"owner"`
	TargetAddress string     `json:"target"`
	Subject       string     `json:"subject"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DueAt         *time.Time `json:"due_at"`
	Notes         string     `json:"notes"`
}

func (r *Reminder) FromDomainType(dr reminder.Reminder) {
	r.ID = int64(dr.ID)
	r.MessageID = string(dr.MessageID)
	if dr.ParentID.IsPresent {
		parentID := int64(dr.ParentID.Value)
		r.ParentID = &parentID
	}
	r.OwnerAddress = string(dr.OwnerAddress)
	r.TargetAddress = string(dr.TargetAddress)
	r.Subject = dr.Subject
	r.Status = dr.Status.String()
	r.CreatedAt = dr.CreatedAt
	if dr.DueAt.IsPresent {
		dueAt := dr.DueAt.Value
		r.DueAt = &dueAt
	}
	r.Notes = dr.Notes
}

func NewReminders(reminders []reminder.Reminder) []Reminder {
	result := make([]Reminder, len(reminders))
	for ix, rem := range reminders {
		result[ix].FromDomainType(rem)
	}
	return result
}
