package owner

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"time"
)

type GetOrCreateInput struct {
	Address   c.Email
	TimeZone  string
	Secret    c.Secret
	CreatedAt time.Time
}

type Repository interface {
	// GetOrCreate reports created=true only for the call that inserted the row.
	GetOrCreate(ctx context.Context, input GetOrCreateInput) (o Owner, created bool, err error)
	GetByID(ctx context.Context, id ID) (Owner, error)
	GetByAddress(ctx context.Context, address c.Email) (Owner, error)
	SetDefaultExpression(ctx context.Context, id ID, expression string) error
	MarkVerified(ctx context.Context, id ID, at time.Time) error
}
