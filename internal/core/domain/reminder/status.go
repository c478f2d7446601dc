package reminder

import "errors"

var ErrParseStatus = errors.New("invalid status")

type Status struct {
	v string
}

func (s Status) String() string {
	return s.v
}

func ParseStatus(value string) (Status, error) {
	switch value {
	case "unprocessed":
		return StatusUnprocessed, nil
	case "scheduled":
		return StatusScheduled, nil
	case "fired":
		return StatusFired, nil
	case "ignored":
		return StatusIgnored, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return StatusUnknown, ErrParseStatus
	}
}

var (
	StatusUnknown     = Status{}
	StatusUnprocessed = Status{v: "unprocessed"}
	StatusScheduled   = Status{v: "scheduled"}
	StatusFired       = Status{v: "fired"}
	StatusIgnored     = Status{v: "ignored"}
	StatusCancelled   = Status{v: "cancelled"}
)

func (s Status) IsTerminal() bool {
	return s == StatusFired || s == StatusIgnored || s == StatusCancelled
}
