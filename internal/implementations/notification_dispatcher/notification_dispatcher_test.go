package notificationdispatcher

import (
	"bytes"
	"context"
	"io"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func reminderNotification() notification.Notification {
	return notification.Notification{
		Kind:      notification.KindReminder,
		To:        c.NewEmail("alice@example.com"),
		Subject:   "Re: Call <Bob>",
		InReplyTo: c.NewOptional("original@mail.example.com", true),
		Text:      "Call Bob",
		DueAt:     c.NewOptional(now.Add(2*time.Hour), true),
		Now:       now,
		TimeZone:  "Europe/Berlin",
		Links: []notification.Link{
			{Label: "Snooze: 1hour", URL: "https://snoozer.test/exec?action=s&id=1&t=1hour&token=abc"},
		},
	}
}

func TestRender(t *testing.T) {
	assert := require.New(t)

	rendered, err := Render(reminderNotification())

	assert.Nil(err)
	assert.Contains(rendered.Text, "Here is your reminder.")
	assert.Contains(rendered.Text, "Call Bob")
	assert.Contains(rendered.Text, "Wed, 03 Jan 2024 13:30 CET")
	assert.Contains(rendered.Text, "2 hours from now")
	assert.Contains(rendered.Text, "Snooze: 1hour: https://snoozer.test/exec?action=s&id=1&t=1hour&token=abc")
	assert.Contains(rendered.HTML, `href="https://snoozer.test/exec?action=s&amp;id=1&amp;t=1hour&amp;token=abc"`)
}

func TestRenderEscapesHTML(t *testing.T) {
	n := reminderNotification()
	n.Notes = "<script>alert(1)</script>"

	rendered, err := Render(n)

	require.Nil(t, err)
	require.NotContains(t, rendered.HTML, "<script>")
	require.Contains(t, rendered.HTML, "&lt;script&gt;")
}

func TestRenderEmptyDigest(t *testing.T) {
	rendered, err := Render(notification.Notification{Kind: notification.KindDigest, Now: now})

	require.Nil(t, err)
	require.Contains(t, rendered.Text, "Nothing here yet.")
}

func TestRenderItems(t *testing.T) {
	n := notification.Notification{
		Kind:     notification.KindDigest,
		Now:      now,
		TimeZone: "UTC",
		Items: []notification.Item{
			{Subject: "Dentist", Status: "scheduled", DueAt: c.NewOptional(now.Add(time.Hour), true)},
			{Subject: "Taxes", Status: "scheduled"},
		},
	}

	rendered, err := Render(n)

	require.Nil(t, err)
	require.Contains(t, rendered.Text, "- Dentist, Wed, 03 Jan 2024 11:30 UTC [scheduled]")
	require.Contains(t, rendered.Text, "- Taxes [scheduled]")
}

func TestBuildMessage(t *testing.T) {
	assert := require.New(t)

	raw, err := BuildMessage(reminderNotification(), c.NewEmail("reminders@snoozer.test"), "out-1@snoozer.test", now)
	assert.Nil(err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	assert.Nil(err)
	subject, err := mr.Header.Subject()
	assert.Nil(err)
	assert.Equal("Re: Call <Bob>", subject)
	inReplyTo, err := mr.Header.MsgIDList("In-Reply-To")
	assert.Nil(err)
	assert.Equal([]string{"original@mail.example.com"}, inReplyTo)
	to, err := mr.Header.AddressList("To")
	assert.Nil(err)
	assert.Equal("alice@example.com", to[0].Address)

	var types []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		assert.Nil(err)
		h, ok := p.Header.(*mail.InlineHeader)
		assert.True(ok)
		contentType, _, err := h.ContentType()
		assert.Nil(err)
		types = append(types, contentType)
		body, err := io.ReadAll(p.Body)
		assert.Nil(err)
		assert.True(strings.Contains(string(body), "Call Bob"))
	}
	assert.Equal([]string{"text/plain", "text/html"}, types)
}

func TestLogDispatcher(t *testing.T) {
	log := logging.NewFakeLogger()
	d := NewLog(log)

	err := d.Send(context.Background(), reminderNotification())

	require.Nil(t, err)
	require.Equal(t, 1, log.Count(logging.INFO))
}
