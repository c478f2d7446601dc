package common

import (
	"fmt"
	"strings"
)

type Optional[T any] struct {
	Value     T
	IsPresent bool
}

func (p *Optional[T]) String() string {
	if !p.IsPresent {
		return "[-]"
	}
	return fmt.Sprintf("[%v]", p.Value)
}

func NewOptional[T any](value T, isPresent bool) Optional[T] {
	return Optional[T]{Value: value, IsPresent: isPresent}
}

type Email string

func NewEmail(rawEmail string) Email {
	return Email(strings.ToLower(strings.TrimSpace(rawEmail)))
}

// LocalPart returns the portion of the address before the last "@".
func (e Email) LocalPart() string {
	ix := strings.LastIndex(string(e), "@")
	if ix < 0 {
		return string(e)
	}
	return string(e)[:ix]
}

func (e Email) Domain() string {
	ix := strings.LastIndex(string(e), "@")
	if ix < 0 {
		return ""
	}
	return string(e)[ix+1:]
}

func (e Email) IsValid() bool {
	ix := strings.LastIndex(string(e), "@")
	return ix > 0 && ix < len(e)-1
}
