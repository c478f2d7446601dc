package timeexpressionparser

import (
	"fmt"
	"snoozer/internal/core/domain/reminder"
	"testing"
	"time"

	"github.com/golang-module/carbon/v2"
	"github.com/stretchr/testify/require"
)

func tz(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// 2024-01-03 is a Wednesday.
var wednesday = time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC)

func TestResolveSuccessfully(t *testing.T) {
	cases := []struct {
		expression string
		now        time.Time
		expected   time.Time
	}{
		{expression: "2hours", now: wednesday, expected: time.Date(2024, 1, 3, 12, 30, 0, 0, time.UTC)},
		{expression: "90min", now: wednesday, expected: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)},
		{expression: "1day", now: wednesday, expected: time.Date(2024, 1, 4, 10, 30, 0, 0, time.UTC)},
		{expression: "3d", now: wednesday, expected: time.Date(2024, 1, 6, 10, 30, 0, 0, time.UTC)},
		{expression: "2weeks", now: wednesday, expected: time.Date(2024, 1, 17, 10, 30, 0, 0, time.UTC)},
		{expression: "1month", now: wednesday, expected: time.Date(2024, 2, 3, 10, 30, 0, 0, time.UTC)},
		{expression: "1month", now: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), expected: time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{expression: "tomorrow", now: wednesday, expected: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)},
		{expression: "tmrw", now: wednesday, expected: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)},
		{expression: "tomorrow-9am", now: wednesday, expected: time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)},
		{expression: "today", now: wednesday, expected: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)},
		{expression: "today-3pm", now: wednesday, expected: time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)},
		{expression: "today.midnight", now: wednesday, expected: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{expression: "morning", now: wednesday, expected: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)},
		{expression: "evening", now: wednesday, expected: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)},
		{expression: "noon", now: wednesday, expected: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)},
		{expression: "midnight", now: wednesday, expected: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{expression: "8am", now: wednesday, expected: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)},
		{expression: "6pm", now: wednesday, expected: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)},
		{expression: "830pm", now: wednesday, expected: time.Date(2024, 1, 3, 20, 30, 0, 0, time.UTC)},
		{expression: "12pm", now: wednesday, expected: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)},
		{expression: "12am", now: wednesday, expected: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{expression: "10.30am", now: wednesday, expected: time.Date(2024, 1, 4, 10, 30, 0, 0, time.UTC)},
		{expression: "monday", now: wednesday, expected: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
		{expression: "sun", now: wednesday, expected: time.Date(2024, 1, 7, 8, 0, 0, 0, time.UTC)},
		{expression: "next-friday", now: wednesday, expected: time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)},
		{expression: "nextmonday", now: wednesday, expected: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
		{expression: "friday-3pm", now: wednesday, expected: time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)},
		{expression: "wednesday", now: time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC), expected: time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)},
		{expression: "wednesday", now: wednesday, expected: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)},
		{expression: "31dec", now: wednesday, expected: time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC)},
		{expression: "dec-25", now: wednesday, expected: time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC)},
		{expression: "15february", now: wednesday, expected: time.Date(2024, 2, 15, 8, 0, 0, 0, time.UTC)},
		{expression: "1jan", now: wednesday, expected: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)},
		{expression: "jan3", now: wednesday, expected: time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)},
		{expression: "daily", now: wednesday, expected: time.Date(2024, 1, 4, 10, 30, 0, 0, time.UTC)},
		{expression: "weekly", now: wednesday, expected: time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)},
		{expression: "monthly", now: wednesday, expected: time.Date(2024, 2, 3, 10, 30, 0, 0, time.UTC)},
		{expression: "weekdays", now: time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), expected: time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC)},
		{expression: "2024-02-10", now: wednesday, expected: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{expression: "2024-01-03", now: wednesday, expected: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		// A single nudge only, even if the result stays in the past.
		{expression: "2020-05-01", now: wednesday, expected: time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC)},
		{expression: " Tomorrow ", now: wednesday, expected: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC)},
		{
			expression: "tomorrow",
			now:        time.Date(2024, 3, 9, 10, 0, 0, 0, tz("America/New_York")),
			expected:   time.Date(2024, 3, 10, 8, 0, 0, 0, tz("America/New_York")),
		},
		{
			expression: "eod",
			now:        time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC).In(tz("Asia/Tokyo")),
			expected:   time.Date(2024, 1, 4, 18, 0, 0, 0, tz("Asia/Tokyo")),
		},
	}
	for _, testcase := range cases {
		t.Run(fmt.Sprintf("%s at %s", testcase.expression, testcase.now.Format(time.RFC3339)), func(t *testing.T) {
			assert := require.New(t)
			parser := New(DefaultConfig())

			res, err := parser.Resolve(testcase.expression, testcase.now)

			assert.Nil(err)
			assert.True(
				testcase.expected.Equal(res.DueAt),
				"expected %v, got %v", testcase.expected, res.DueAt,
			)
		})
	}
}

func TestResolveFails(t *testing.T) {
	for _, expression := range []string{"", "blah", "0hours", "31feb", "13pm", "foo-bar", "nextweek", "next-today", "99dec"} {
		t.Run(expression, func(t *testing.T) {
			parser := New(DefaultConfig())

			_, err := parser.Resolve(expression, wednesday)

			require.ErrorIs(t, err, reminder.ErrParseExpression)
		})
	}
}

func TestResolveRelativeAddsExactAmount(t *testing.T) {
	parser := New(DefaultConfig())
	references := []time.Time{
		time.Date(2024, 1, 3, 10, 30, 15, 0, time.UTC),
		time.Date(2023, 6, 28, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	units := map[string]func(t time.Time, n int) time.Time{
		"min":   func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Minute) },
		"hour":  func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) },
		"day":   func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
		"week":  func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
		"month": func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	}
	for unit, add := range units {
		for n := 1; n <= 30; n++ {
			for _, ref := range references {
				res, err := parser.Resolve(fmt.Sprintf("%d%s", n, unit), ref)
				require.Nil(t, err)
				require.True(t, add(ref, n).Equal(res.DueAt), "%d%s from %v: got %v", n, unit, ref, res.DueAt)
			}
		}
	}
}

func TestResolveWeekdayIsWithinNextSevenDays(t *testing.T) {
	parser := New(DefaultConfig())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, tz("Europe/Berlin"))
	for i := 0; i < 14*24; i++ {
		ref := start.Add(time.Duration(i)*time.Hour + 17*time.Minute)

		res, err := parser.Resolve("monday", ref)

		require.Nil(t, err)
		require.Equal(t, time.Monday, res.DueAt.In(ref.Location()).Weekday())
		require.True(t, res.DueAt.After(ref), "%v is not after %v", res.DueAt, ref)
		require.LessOrEqual(t, res.DueAt.Sub(ref), 7*24*time.Hour)
	}
}

func TestResolveMonthDayRollsOverOnce(t *testing.T) {
	assert := require.New(t)
	parser := New(DefaultConfig())

	res, err := parser.Resolve("31dec", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Nil(err)
	assert.Equal(2024, res.DueAt.Year())

	res, err = parser.Resolve("31dec", time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC))
	assert.Nil(err)
	assert.True(time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC).Equal(res.DueAt))
}

func TestResolveEndOfDay(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{name: "before", now: time.Date(2024, 1, 3, 17, 59, 0, 0, time.UTC), expected: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)},
		{name: "exactly at", now: time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC), expected: time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC)},
		{name: "after", now: time.Date(2024, 1, 3, 19, 0, 0, 0, time.UTC), expected: time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC)},
	}
	for _, testcase := range cases {
		t.Run(testcase.name, func(t *testing.T) {
			res, err := New(DefaultConfig()).Resolve("eod", testcase.now)
			require.Nil(t, err)
			require.True(t, testcase.expected.Equal(res.DueAt), "got %v", res.DueAt)
		})
	}
}

func TestResolveEndOfWeek(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		now      time.Time
		expected time.Time
	}{
		{name: "midweek", cfg: DefaultConfig(), now: wednesday, expected: time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC)},
		{name: "friday before end of day", cfg: DefaultConfig(), now: time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC), expected: time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC)},
		{name: "friday after end of day", cfg: DefaultConfig(), now: time.Date(2024, 1, 5, 19, 0, 0, 0, time.UTC), expected: time.Date(2024, 1, 12, 18, 0, 0, 0, time.UTC)},
		{
			name:     "sunday configured",
			cfg:      Config{DefaultHour: 8, EndOfDayHour: 17, EndOfWeekDay: time.Sunday},
			now:      wednesday,
			expected: time.Date(2024, 1, 7, 17, 0, 0, 0, time.UTC),
		},
	}
	for _, testcase := range cases {
		t.Run(testcase.name, func(t *testing.T) {
			res, err := New(testcase.cfg).Resolve("eow", testcase.now)
			require.Nil(t, err)
			require.True(t, testcase.expected.Equal(res.DueAt), "got %v", res.DueAt)
		})
	}
}

func TestResolveRecurrenceIsReported(t *testing.T) {
	assert := require.New(t)
	parser := New(DefaultConfig())

	res, err := parser.Resolve("weekdays", wednesday)
	assert.Nil(err)
	assert.True(res.Recurrence.IsPresent)
	assert.Equal(reminder.RecurrenceWeekdays, res.Recurrence.Value)

	res, err = parser.Resolve("tomorrow", wednesday)
	assert.Nil(err)
	assert.False(res.Recurrence.IsPresent)
}

func TestResolveLeapDayPicksNextLeapYear(t *testing.T) {
	cases := []struct {
		id       string
		now      time.Time
		expected time.Time
	}{
		{id: "leap year before", now: time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC), expected: time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)},
		{id: "leap year after", now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), expected: time.Date(2028, 2, 29, 8, 0, 0, 0, time.UTC)},
		{id: "leap day itself", now: time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC), expected: time.Date(2028, 2, 29, 8, 0, 0, 0, time.UTC)},
		{id: "common year", now: time.Date(2025, 1, 3, 10, 30, 0, 0, time.UTC), expected: time.Date(2028, 2, 29, 8, 0, 0, 0, time.UTC)},
		{id: "century", now: time.Date(2097, 6, 1, 0, 0, 0, 0, time.UTC), expected: time.Date(2104, 2, 29, 8, 0, 0, 0, time.UTC)},
	}
	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			res, err := New(DefaultConfig()).Resolve("29feb", testcase.now)

			require.Nil(t, err)
			require.True(t, testcase.expected.Equal(res.DueAt), "expected %v, got %v", testcase.expected, res.DueAt)
		})
	}
}

func TestResolveTruncatesToWholeSeconds(t *testing.T) {
	res, err := New(DefaultConfig()).Resolve("1hour", time.Date(2024, 1, 3, 10, 30, 0, 999_000_000, time.UTC))
	require.Nil(t, err)
	require.Equal(t, 0, res.DueAt.Nanosecond())
}

func TestApplyRolloverIsOneShot(t *testing.T) {
	reference := carbon.Time2Carbon(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)).SetTimezone("UTC")
	pastByTwoWeeks := reference.AddWeeks(-2)

	cases := []struct {
		cls      class
		expected time.Time
	}{
		{cls: classWeekday, expected: time.Date(2023, 12, 27, 10, 0, 0, 0, time.UTC)},
		{cls: classClock, expected: time.Date(2023, 12, 21, 10, 0, 0, 0, time.UTC)},
		{cls: classMonthDay, expected: time.Date(2023, 12, 20, 10, 0, 0, 0, time.UTC)},
		{cls: classRelative, expected: time.Date(2023, 12, 20, 10, 0, 0, 0, time.UTC)},
		{cls: classRecurrence, expected: time.Date(2023, 12, 20, 10, 0, 0, 0, time.UTC)},
	}
	for _, testcase := range cases {
		t.Run(string(testcase.cls), func(t *testing.T) {
			actual := applyRollover(testcase.cls, pastByTwoWeeks, reference).Carbon2Time()
			require.True(t, testcase.expected.Equal(actual), "got %v", actual)
		})
	}
}
