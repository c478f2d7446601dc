package timeexpressionparser

import (
	"fmt"
	"regexp"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/reminder"
	"strconv"
	"strings"
	"time"
)

var (
	reRelative = regexp.MustCompile(
		`^(\d{1,4})[-_.]?(minutes|minute|mins|min|m|hours|hour|hrs|hr|h|days|day|d|weeks|week|wks|wk|w|months|month|mos|mo)$`,
	)
	reClock    = regexp.MustCompile(`^(\d{1,2})(?:[:.]?(\d{2}))?(am|pm)$`)
	reDayMonth = regexp.MustCompile(`^(\d{1,2})[-_.]?([a-z]{3,9})$`)
	reMonthDay = regexp.MustCompile(`^([a-z]{3,9})[-_.]?(\d{1,2})$`)
	reDigit    = regexp.MustCompile(`\d`)
)

var units = map[string]unit{
	"m": unitMinute, "min": unitMinute, "mins": unitMinute, "minute": unitMinute, "minutes": unitMinute,
	"h": unitHour, "hr": unitHour, "hrs": unitHour, "hour": unitHour, "hours": unitHour,
	"d": unitDay, "day": unitDay, "days": unitDay,
	"w": unitWeek, "wk": unitWeek, "wks": unitWeek, "week": unitWeek, "weeks": unitWeek,
	"mo": unitMonth, "mos": unitMonth, "month": unitMonth, "months": unitMonth,
}

var namedClocks = map[string]clock{
	"noon":     {hour: 12},
	"midnight": {hour: 0},
	"morning":  {hour: 8},
	"evening":  {hour: 18},
}

// Longer names precede their own prefixes.
var dayNames = []struct {
	name    string
	kind    dayKind
	weekday time.Weekday
}{
	{name: "tomorrow", kind: tomorrow},
	{name: "tmrw", kind: tomorrow},
	{name: "tmr", kind: tomorrow},
	{name: "today", kind: today},
	{name: "monday", kind: weekday, weekday: time.Monday},
	{name: "mon", kind: weekday, weekday: time.Monday},
	{name: "tuesday", kind: weekday, weekday: time.Tuesday},
	{name: "tues", kind: weekday, weekday: time.Tuesday},
	{name: "tue", kind: weekday, weekday: time.Tuesday},
	{name: "wednesday", kind: weekday, weekday: time.Wednesday},
	{name: "wed", kind: weekday, weekday: time.Wednesday},
	{name: "thursday", kind: weekday, weekday: time.Thursday},
	{name: "thurs", kind: weekday, weekday: time.Thursday},
	{name: "thur", kind: weekday, weekday: time.Thursday},
	{name: "thu", kind: weekday, weekday: time.Thursday},
	{name: "friday", kind: weekday, weekday: time.Friday},
	{name: "fri", kind: weekday, weekday: time.Friday},
	{name: "saturday", kind: weekday, weekday: time.Saturday},
	{name: "sat", kind: weekday, weekday: time.Saturday},
	{name: "sunday", kind: weekday, weekday: time.Sunday},
	{name: "sun", kind: weekday, weekday: time.Sunday},
}

type Config struct {
	// DefaultHour applies to days named without a clock time.
	DefaultHour int
	// EndOfDayHour is used by eod, eow and a bare today.
	EndOfDayHour int
	EndOfWeekDay time.Weekday
}

func DefaultConfig() Config {
	return Config{DefaultHour: 8, EndOfDayHour: 18, EndOfWeekDay: time.Friday}
}

type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	if cfg.DefaultHour < 0 || cfg.DefaultHour > 23 {
		panic(fmt.Sprintf("invalid default hour: %d", cfg.DefaultHour))
	}
	if cfg.EndOfDayHour < 0 || cfg.EndOfDayHour > 23 {
		panic(fmt.Sprintf("invalid end of day hour: %d", cfg.EndOfDayHour))
	}
	return &Parser{cfg: cfg}
}

func (p *Parser) Resolve(expression string, reference time.Time) (res reminder.Resolution, err error) {
	expression = strings.ToLower(strings.TrimSpace(expression))
	n, err := p.parse(expression)
	if err != nil {
		return res, err
	}

	r := newResolver(p.cfg, reference)
	if err := n.accept(r); err != nil {
		return res, err
	}

	at := applyRollover(r.cls, r.at, r.reference)
	res.DueAt = c.WholeSeconds(c.FromCarbon(at, reference.Location()))
	res.Recurrence = r.recurrence
	return res, nil
}

func (p *Parser) parse(expression string) (node, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression, %w", reminder.ErrParseExpression)
	}
	if rec, err := reminder.ParseRecurrence(expression); err == nil {
		return recurrence{recurrence: rec}, nil
	}
	if n, ok := parseRelative(expression); ok {
		return n, nil
	}
	switch expression {
	case "eod":
		return endOf{kind: endOfDay}, nil
	case "eow":
		return endOf{kind: endOfWeek}, nil
	}
	if n, ok := parseClock(expression); ok {
		return n, nil
	}
	if n, ok := parseDay(expression); ok {
		return n, nil
	}
	if n, ok := parseMonthDay(expression); ok {
		return n, nil
	}
	if reDigit.MatchString(expression) {
		return fallback{value: expression}, nil
	}
	return nil, fmt.Errorf("%q, %w", expression, reminder.ErrParseExpression)
}

func parseRelative(expression string) (relative, bool) {
	match := reRelative.FindStringSubmatch(expression)
	if match == nil {
		return relative{}, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n == 0 {
		return relative{}, false
	}
	return relative{n: n, unit: units[match[2]]}, true
}

func parseClock(expression string) (clock, bool) {
	if named, ok := namedClocks[expression]; ok {
		return named, true
	}
	match := reClock.FindStringSubmatch(expression)
	if match == nil {
		return clock{}, false
	}
	h, err := strconv.Atoi(match[1])
	if err != nil || h < 1 || h > 12 {
		return clock{}, false
	}
	m := 0
	if match[2] != "" {
		m, err = strconv.Atoi(match[2])
		if err != nil || m > 59 {
			return clock{}, false
		}
	}
	if h == 12 {
		h = 0
	}
	if match[3] == "pm" {
		h += 12
	}
	return clock{hour: h, minute: m}, true
}

func parseDay(expression string) (day, bool) {
	isNext := false
	rest := expression
	for _, prefix := range []string{"next-", "next_", "next."} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			isNext = true
			break
		}
	}
	if !isNext && strings.HasPrefix(rest, "next") {
		rest = rest[len("next"):]
		isNext = true
	}

	for _, candidate := range dayNames {
		if isNext && candidate.kind != weekday {
			continue
		}
		if !strings.HasPrefix(rest, candidate.name) {
			continue
		}
		n := day{kind: candidate.kind, weekday: candidate.weekday}
		suffix := strings.TrimLeft(rest[len(candidate.name):], "-_.")
		if suffix == "" {
			if len(rest) != len(candidate.name) {
				continue
			}
			return n, true
		}
		at, ok := parseClock(suffix)
		if !ok {
			continue
		}
		n.at = &at
		return n, true
	}
	return day{}, false
}

func parseMonthDay(expression string) (monthDay, bool) {
	var rawDay, rawMonth string
	if match := reDayMonth.FindStringSubmatch(expression); match != nil {
		rawDay, rawMonth = match[1], match[2]
	} else if match := reMonthDay.FindStringSubmatch(expression); match != nil {
		rawMonth, rawDay = match[1], match[2]
	} else {
		return monthDay{}, false
	}

	m, ok := lookupMonth(rawMonth)
	if !ok {
		return monthDay{}, false
	}
	d, err := strconv.Atoi(rawDay)
	if err != nil || d < 1 || d > 31 {
		return monthDay{}, false
	}
	return monthDay{month: m, day: d}, true
}

func lookupMonth(value string) (time.Month, bool) {
	if len(value) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), value) {
			return m, true
		}
	}
	return 0, false
}
