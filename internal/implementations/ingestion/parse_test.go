package ingestion

import (
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/reminder"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fetchedAt = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	raw := "From: Alice <Alice@Example.com>\r\n" +
		"To: Bob <bob@example.com>, 2hours@Snoozer.test\r\n" +
		"Subject: =?utf-8?q?Caf=C3=A9_meeting?=\r\n" +
		"Message-ID: <abc-123@mail.example.com>\r\n" +
		"Date: Wed, 03 Jan 2024 09:00:00 +0000\r\n" +
		"\r\n" +
		"Body is ignored.\r\n"

	msg, err := NewParser("snoozer.test").Parse([]byte(raw), fetchedAt)

	assert := require.New(t)
	assert.Nil(err)
	assert.Equal(c.Email("alice@example.com"), msg.From)
	assert.Equal(c.Email("2hours@snoozer.test"), msg.To)
	assert.Equal("Café meeting", msg.Subject)
	assert.Equal(reminder.MessageID("abc-123@mail.example.com"), msg.MessageID)
	assert.True(msg.ReceivedAt.Equal(time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)))
	assert.NotContains(msg.RawHeader, "Body is ignored.")
	assert.Contains(msg.RawHeader, "Message-ID: <abc-123@mail.example.com>")
}

func TestParseRecipientLookup(t *testing.T) {
	cases := []struct {
		id       string
		headers  string
		expected c.Email
	}{
		{
			id:       "cc",
			headers:  "To: bob@example.com\r\nCc: tomorrow@snoozer.test\r\n",
			expected: "tomorrow@snoozer.test",
		},
		{
			id:       "bcc via delivered-to",
			headers:  "To: bob@example.com\r\nDelivered-To: friday@snoozer.test\r\n",
			expected: "friday@snoozer.test",
		},
		{
			id:       "first match wins",
			headers:  "To: 1hour@snoozer.test, 2hours@snoozer.test\r\n",
			expected: "1hour@snoozer.test",
		},
		{
			id:       "subdomain is not ours",
			headers:  "To: 1hour@mail.snoozer.test\r\nCc: 3days@snoozer.test\r\n",
			expected: "3days@snoozer.test",
		},
	}
	for _, testCase := range cases {
		t.Run(testCase.id, func(t *testing.T) {
			raw := "From: alice@example.com\r\nMessage-ID: <m@example.com>\r\n" + testCase.headers + "\r\n"

			msg, err := NewParser("snoozer.test").Parse([]byte(raw), fetchedAt)

			require.Nil(t, err)
			require.Equal(t, testCase.expected, msg.To)
		})
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		id       string
		raw      string
		expected error
	}{
		{
			id:       "no time address",
			raw:      "From: alice@example.com\r\nTo: bob@example.com\r\nMessage-ID: <m@example.com>\r\n\r\n",
			expected: ErrNoTimeAddress,
		},
		{
			id:       "no message id",
			raw:      "From: alice@example.com\r\nTo: 1hour@snoozer.test\r\n\r\n",
			expected: ErrNoMessageID,
		},
		{
			id:       "no sender",
			raw:      "To: 1hour@snoozer.test\r\nMessage-ID: <m@example.com>\r\n\r\n",
			expected: ErrNoSender,
		},
	}
	for _, testCase := range cases {
		t.Run(testCase.id, func(t *testing.T) {
			_, err := NewParser("snoozer.test").Parse([]byte(testCase.raw), fetchedAt)
			require.ErrorIs(t, err, testCase.expected)
		})
	}
}

func TestParseWithoutDateUsesFetchTime(t *testing.T) {
	raw := "From: alice@example.com\nTo: 1hour@snoozer.test\nMessage-ID: <m@example.com>\n"

	msg, err := NewParser("snoozer.test").Parse([]byte(raw), fetchedAt)

	require.Nil(t, err)
	require.Equal(t, fetchedAt, msg.ReceivedAt)
	require.Equal(t, "", msg.Subject)
}
