package action

import (
	"fmt"
	"net/url"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	"strconv"
)

// SnoozeOptions are offered in every reminder email.
var SnoozeOptions = []string{"1hour", "3hours", "tomorrow", "next-monday", "1week"}

type LinkBuilder struct {
	baseURL url.URL
	codec   TokenCodec
}

func NewLinkBuilder(baseURL url.URL, codec TokenCodec) *LinkBuilder {
	if codec == nil {
		panic(e.NewNilArgumentError("codec"))
	}
	return &LinkBuilder{baseURL: baseURL, codec: codec}
}

func (b *LinkBuilder) Snooze(r reminder.Reminder, expression string) (notification.Link, error) {
	link, err := b.reminderLink(r, ActionSnooze, expression)
	if err != nil {
		return link, err
	}
	link.Label = fmt.Sprintf("Snooze: %s", expression)
	return link, nil
}

func (b *LinkBuilder) SnoozeAll(r reminder.Reminder) ([]notification.Link, error) {
	links := make([]notification.Link, 0, len(SnoozeOptions))
	for _, expression := range SnoozeOptions {
		link, err := b.Snooze(r, expression)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

func (b *LinkBuilder) Cancel(r reminder.Reminder) (notification.Link, error) {
	link, err := b.reminderLink(r, ActionCancel, "")
	if err != nil {
		return link, err
	}
	link.Label = "Cancel"
	return link, nil
}

func (b *LinkBuilder) Verify(o owner.Owner) (notification.Link, error) {
	token, err := b.codec.Encode([]byte(o.Address), o.Secret)
	if err != nil {
		return notification.Link{}, err
	}
	return notification.Link{
		Label: "Verify your address",
		URL:   b.execURL(strconv.FormatInt(int64(o.ID), 10), ActionVerify, "", token),
	}, nil
}

// Stream builds the live feed URL for an owner.
func (b *LinkBuilder) Stream(address c.Email, token owner.StreamToken) notification.Link {
	u := b.baseURL
	u.Path = "/events"
	q := url.Values{}
	q.Set("owner", string(address))
	q.Set("token", string(token))
	u.RawQuery = q.Encode()
	return notification.Link{Label: "Live feed", URL: u.String()}
}

func (b *LinkBuilder) reminderLink(r reminder.Reminder, a Action, expression string) (notification.Link, error) {
	token, err := b.codec.Encode([]byte(r.MessageID), r.Secret)
	if err != nil {
		return notification.Link{}, err
	}
	return notification.Link{URL: b.execURL(strconv.FormatInt(int64(r.ID), 10), a, expression, token)}, nil
}

func (b *LinkBuilder) execURL(id string, a Action, expression string, token Token) string {
	u := b.baseURL
	u.Path = "/exec"
	q := url.Values{}
	q.Set("id", id)
	q.Set("action", a.String())
	if expression != "" {
		q.Set("t", expression)
	}
	q.Set("token", string(token))
	u.RawQuery = q.Encode()
	return u.String()
}

// Item describes a reminder in digests and search results. Scheduled
// reminders get a "send now" and a cancel link.
func (b *LinkBuilder) Item(r reminder.Reminder) (notification.Item, error) {
	item := notification.Item{
		Subject: r.DisplaySubject(),
		Status:  r.Status.String(),
		DueAt:   r.DueAt,
	}
	if r.Status != reminder.StatusScheduled {
		return item, nil
	}
	release, err := b.Snooze(r, reminder.ReleaseNowExpression)
	if err != nil {
		return item, err
	}
	release.Label = "Send now"
	cancel, err := b.Cancel(r)
	if err != nil {
		return item, err
	}
	item.Links = []notification.Link{release, cancel}
	return item, nil
}
