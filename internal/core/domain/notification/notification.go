package notification

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"strings"
	"time"
)

type Kind string

const (
	KindReminder      Kind = "reminder"
	KindUnrecognized  Kind = "unrecognized"
	KindDigest        Kind = "digest"
	KindSearchResults Kind = "search_results"
	KindDefaultSet    Kind = "default_set"
	KindVerification  Kind = "verification"
)

type Link struct {
	Label string
	URL   string
}

type Item struct {
	Subject string
	Status  string
	DueAt   c.Optional[time.Time]
	Links   []Link
}

// Notification is an outgoing message. The dispatcher renders the HTML body
// from Kind and the payload fields.
type Notification struct {
	Kind      Kind
	To        c.Email
	Subject   string
	InReplyTo c.Optional[string]
	Text      string
	DueAt     c.Optional[time.Time]
	Now       time.Time
	TimeZone  string
	Notes     string
	Items     []Item
	Links     []Link
}

// Dispatcher sends a single notification, one attempt per call.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// ReplySubject prefixes the subject with "Re: " unless it already has one.
func ReplySubject(subject string) string {
	if subject == "" {
		return "Re: (no subject)"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
