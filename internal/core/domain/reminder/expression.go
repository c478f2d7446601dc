package reminder

import (
	c "snoozer/internal/core/domain/common"
	"time"
)

type Resolution struct {
	DueAt      time.Time
	Recurrence c.Optional[Recurrence]
}

// TimeExpressionParser resolves a lower-cased local part against a reference
// moment. Calendar boundaries are taken from the reference's location.
// Unrecognized expressions yield ErrParseExpression.
type TimeExpressionParser interface {
	Resolve(expression string, reference time.Time) (Resolution, error)
}
