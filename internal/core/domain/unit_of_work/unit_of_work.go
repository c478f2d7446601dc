package uow

import (
	"context"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
)

type Context interface {
	Rollback(ctx context.Context) error
	Commit(ctx context.Context) error

	Reminders() reminder.Repository
	Owners() owner.Repository
}

type UnitOfWork interface {
	Begin(ctx context.Context) (Context, error)
}
