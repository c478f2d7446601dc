package action

import (
	"net/url"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	"testing"

	"github.com/stretchr/testify/require"
)

func builder() *LinkBuilder {
	return NewLinkBuilder(url.URL{Scheme: "https", Host: "snoozer.test"}, FakeTokenCodec{})
}

func scheduled() reminder.Reminder {
	return reminder.Reminder{
		ID:        42,
		MessageID: "m1@x.com",
		Subject:   "Hi",
		Status:    reminder.StatusScheduled,
		Secret:    c.Secret{1, 2, 3},
	}
}

func TestSnoozeLinkCarriesExpressionAndToken(t *testing.T) {
	// Exercise ---
	link, err := builder().Snooze(scheduled(), "tomorrow")

	// Verify ---
	assert := require.New(t)
	assert.Nil(err)
	assert.Equal("Snooze: tomorrow", link.Label)

	u, err := url.Parse(link.URL)
	assert.Nil(err)
	assert.Equal("/exec", u.Path)
	assert.Equal("42", u.Query().Get("id"))
	assert.Equal("s", u.Query().Get("action"))
	assert.Equal("tomorrow", u.Query().Get("t"))

	token := Token(u.Query().Get("token"))
	assert.Nil(Authorize(FakeTokenCodec{}, token, scheduled().Secret, "m1@x.com"))
	assert.ErrorIs(Authorize(FakeTokenCodec{}, token, scheduled().Secret, "m2@x.com"), ErrInvalidToken)
	assert.ErrorIs(Authorize(FakeTokenCodec{}, token, c.Secret{9}, "m1@x.com"), ErrInvalidToken)
}

func TestSnoozeAllOffersEveryOption(t *testing.T) {
	links, err := builder().SnoozeAll(scheduled())

	assert := require.New(t)
	assert.Nil(err)
	assert.Len(links, len(SnoozeOptions))
}

func TestCancelLinkHasNoExpression(t *testing.T) {
	link, err := builder().Cancel(scheduled())

	assert := require.New(t)
	assert.Nil(err)
	u, err := url.Parse(link.URL)
	assert.Nil(err)
	assert.Equal("c", u.Query().Get("action"))
	assert.False(u.Query().Has("t"))
}

func TestVerifyLinkIsBoundToOwnerAddress(t *testing.T) {
	// Setup ---
	o := owner.Owner{ID: 3, Address: "a@x.com", Secret: c.Secret{4, 5, 6}}

	// Exercise ---
	link, err := builder().Verify(o)

	// Verify ---
	assert := require.New(t)
	assert.Nil(err)
	u, err := url.Parse(link.URL)
	assert.Nil(err)
	assert.Equal("3", u.Query().Get("id"))
	assert.Equal("v", u.Query().Get("action"))
	assert.Nil(Authorize(FakeTokenCodec{}, Token(u.Query().Get("token")), o.Secret, "a@x.com"))
}

func TestItemLinks(t *testing.T) {
	assert := require.New(t)

	item, err := builder().Item(scheduled())
	assert.Nil(err)
	assert.Equal("Hi", item.Subject)
	assert.Equal("scheduled", item.Status)
	assert.Len(item.Links, 2)
	assert.Contains(item.Links[0].URL, "t=today.midnight")

	fired := scheduled()
	fired.Status = reminder.StatusFired
	item, err = builder().Item(fired)
	assert.Nil(err)
	assert.Len(item.Links, 0)
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		value    string
		expected Action
		err      error
	}{
		{value: "s", expected: ActionSnooze},
		{value: "c", expected: ActionCancel},
		{value: "v", expected: ActionVerify},
		{value: "x", expected: ActionUnknown, err: ErrParseAction},
		{value: "", expected: ActionUnknown, err: ErrParseAction},
	}
	for _, testcase := range cases {
		t.Run(testcase.value, func(t *testing.T) {
			a, err := ParseAction(testcase.value)
			require.ErrorIs(t, err, testcase.err)
			require.Equal(t, testcase.expected, a)
		})
	}
}
