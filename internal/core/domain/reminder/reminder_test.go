package reminder

import (
	c "snoozer/internal/core/domain/common"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		id     string
		status Status
		dueAt  c.Optional[time.Time]
		isDue  bool
	}{
		{id: "past", status: StatusScheduled, dueAt: c.NewOptional(now.Add(-time.Minute), true), isDue: true},
		{id: "exact", status: StatusScheduled, dueAt: c.NewOptional(now, true), isDue: true},
		{id: "future", status: StatusScheduled, dueAt: c.NewOptional(now.Add(time.Second), true), isDue: false},
		{id: "fired", status: StatusFired, dueAt: c.NewOptional(now.Add(-time.Minute), true), isDue: false},
		{id: "no due time", status: StatusScheduled, isDue: false},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			rem := Reminder{Status: testcase.status, DueAt: testcase.dueAt}
			require.Equal(t, testcase.isDue, rem.IsDue(now))
		})
	}
}

func TestRecurrenceFromTargetAddress(t *testing.T) {
	assert := require.New(t)

	rec, ok := Reminder{TargetAddress: c.Email("weekdays@snoozer.test")}.Recurrence()
	assert.True(ok)
	assert.Equal(RecurrenceWeekdays, rec)

	_, ok = Reminder{TargetAddress: c.Email("tomorrow@snoozer.test")}.Recurrence()
	assert.False(ok)
}

func TestCloneInputKeepsChain(t *testing.T) {
	// Setup ---
	dueAt := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	original := Reminder{
		ID:            7,
		MessageID:     "first@x.com",
		OwnerAddress:  "a@x.com",
		TargetAddress: "daily@snoozer.test",
		Subject:       "Hi",
		Notes:         "bring keys",
		Status:        StatusFired,
	}

	// Exercise ---
	input := original.CloneInput("second@snoozer.test", zeroSecret(), original.TargetAddress, dueAt, createdAt)

	// Verify ---
	assert := require.New(t)
	assert.Equal(MessageID("first@x.com"), input.RootMessageID)
	assert.Equal(c.NewOptional(ID(7), true), input.ParentID)
	assert.Equal(StatusScheduled, input.Status)
	assert.Equal(c.NewOptional(dueAt, true), input.DueAt)
	assert.Equal("Hi", input.Subject)
	assert.Equal("bring keys", input.Notes)
}

func TestTruncateSubject(t *testing.T) {
	assert := require.New(t)

	assert.Equal("short", TruncateSubject("short"))

	long := strings.Repeat("ä", MAX_SUBJECT_LEN)
	truncated := TruncateSubject(long)
	assert.LessOrEqual(len(truncated), MAX_SUBJECT_LEN)
	assert.True(utf8.ValidString(truncated))
}

func zeroSecret() c.Secret {
	return make(c.Secret, SECRET_LEN)
}
