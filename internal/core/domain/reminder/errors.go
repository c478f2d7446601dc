package reminder

import "errors"

var (
	ErrReminderDoesNotExist = errors.New("reminder does not exist")
	ErrDuplicateMessageID   = errors.New("reminder with the same message ID already exists")
	ErrReminderNotActive    = errors.New("reminder has already been processed")
	ErrParseExpression      = errors.New("unrecognized time expression")
	ErrInvalidSubject       = errors.New("reminder subject is too long")
	ErrInvalidMessage       = errors.New("inbound message lacks a sender, a recipient or a message ID")
	ErrInvalidDueAt         = errors.New("due time must be in the future")
)
