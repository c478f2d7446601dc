package owner

import "errors"

var (
	ErrOwnerDoesNotExist = errors.New("owner does not exist")
	ErrInvalidTimeZone   = errors.New("invalid time zone")
)
