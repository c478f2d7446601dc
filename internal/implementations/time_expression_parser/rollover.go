package timeexpressionparser

import "github.com/golang-module/carbon/v2"

// class tags a resolved candidate with the rule that produced it.
type class string

const (
	classRelative   class = "relative"
	classClock      class = "clock"
	classToday      class = "today"
	classTomorrow   class = "tomorrow"
	classWeekday    class = "weekday"
	classEndOfDay   class = "eod"
	classEndOfWeek  class = "eow"
	classMonthDay   class = "month_day"
	classRecurrence class = "recurrence"
	classFallback   class = "fallback"
)

// rollovers holds the single correction applied to a candidate that is not
// strictly after the reference. Classes without an entry are never corrected.
var rollovers = map[class]func(carbon.Carbon) carbon.Carbon{
	classClock:     func(t carbon.Carbon) carbon.Carbon { return t.AddDays(1) },
	classToday:     func(t carbon.Carbon) carbon.Carbon { return t.AddDays(1) },
	classWeekday:   func(t carbon.Carbon) carbon.Carbon { return t.AddWeeks(1) },
	classEndOfDay:  func(t carbon.Carbon) carbon.Carbon { return t.AddDays(1) },
	classEndOfWeek: func(t carbon.Carbon) carbon.Carbon { return t.AddWeeks(1) },
	classFallback:  func(t carbon.Carbon) carbon.Carbon { return t.AddDays(1) },
}

func applyRollover(cls class, candidate carbon.Carbon, reference carbon.Carbon) carbon.Carbon {
	roll, ok := rollovers[cls]
	if !ok || candidate.Gt(reference) {
		return candidate
	}
	return roll(candidate)
}
