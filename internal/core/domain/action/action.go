package action

import (
	"crypto/subtle"
	"errors"
	c "snoozer/internal/core/domain/common"
)

var (
	ErrInvalidToken = errors.New("invalid or expired link")
	ErrParseAction  = errors.New("invalid action")
)

type Action struct {
	v string
}

var (
	ActionUnknown = Action{}
	ActionSnooze  = Action{v: "s"}
	ActionCancel  = Action{v: "c"}
	ActionVerify  = Action{v: "v"}
)

func (a Action) String() string {
	return a.v
}

func ParseAction(value string) (Action, error) {
	switch value {
	case "s":
		return ActionSnooze, nil
	case "c":
		return ActionCancel, nil
	case "v":
		return ActionVerify, nil
	default:
		return ActionUnknown, ErrParseAction
	}
}

type Token string

// TokenCodec encrypts link payloads with a per-record secret. Decode fails
// with ErrInvalidToken on malformed, forged or foreign tokens.
type TokenCodec interface {
	Encode(plaintext []byte, secret c.Secret) (Token, error)
	Decode(token Token, secret c.Secret) ([]byte, error)
}

// Authorize decodes the token and requires the payload to equal expected exactly.
func Authorize(codec TokenCodec, token Token, secret c.Secret, expected string) error {
	plaintext, err := codec.Decode(token, secret)
	if err != nil {
		return ErrInvalidToken
	}
	if len(plaintext) != len(expected) || subtle.ConstantTimeCompare(plaintext, []byte(expected)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
