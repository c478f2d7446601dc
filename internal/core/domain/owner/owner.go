package owner

import (
	c "snoozer/internal/core/domain/common"
	"time"
)

type ID int64

type Owner struct {
	ID                ID
	Address           c.Email
	TimeZone          string
	DefaultExpression c.Optional[string]
	Secret            c.Secret
	CreatedAt         time.Time
	VerifiedAt        c.Optional[time.Time]
}

func (o Owner) Location() *time.Location {
	return c.LoadLocation(o.TimeZone)
}

func (o Owner) IsVerified() bool {
	return o.VerifiedAt.IsPresent
}

// Expression returns the owner's default expression or the fallback.
func (o Owner) Expression(fallback string) string {
	if o.DefaultExpression.IsPresent && o.DefaultExpression.Value != "" {
		return o.DefaultExpression.Value
	}
	return fallback
}

// StreamToken authorizes subscriptions to the owner's live event feed.
type StreamToken string

type StreamTokenGenerator interface {
	GenerateStreamToken(address c.Email) StreamToken
}

type StreamTokenValidator interface {
	ValidateStreamToken(address c.Email, token StreamToken) bool
}
