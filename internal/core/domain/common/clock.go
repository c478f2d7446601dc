package common

import (
	"time"

	"github.com/golang-module/carbon/v2"
)

// ToCarbon keeps the location of t so calendar arithmetic follows its wall clock.
func ToCarbon(t time.Time) carbon.Carbon {
	return carbon.Time2Carbon(t).SetTimezone(t.Location().String())
}

func FromCarbon(value carbon.Carbon, loc *time.Location) time.Time {
	return value.Carbon2Time().In(loc)
}

// LoadLocation falls back to UTC for unknown or empty names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WholeSeconds drops the sub-second part.
func WholeSeconds(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
