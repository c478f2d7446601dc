package uow

import (
	"context"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	"sync"
)

type FakeUnitOfWorkContext struct {
	ReminderRepository *reminder.FakeRepository
	OwnerRepository    *owner.FakeRepository
	RollbackCount      int
	CommitCount        int
	lock               sync.Mutex
}

func NewFakeUnitOfWorkContext(
	reminderRepository *reminder.FakeRepository,
	ownerRepository *owner.FakeRepository,
) *FakeUnitOfWorkContext {
	return &FakeUnitOfWorkContext{
		ReminderRepository: reminderRepository,
		OwnerRepository:    ownerRepository,
	}
}

func (c *FakeUnitOfWorkContext) Rollback(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.RollbackCount++
	return nil
}

func (c *FakeUnitOfWorkContext) Commit(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CommitCount++
	return nil
}

func (c *FakeUnitOfWorkContext) Reminders() reminder.Repository {
	return c.ReminderRepository
}

func (c *FakeUnitOfWorkContext) Owners() owner.Repository {
	return c.OwnerRepository
}

// FakeUnitOfWork shares its repositories with the caller; rollback does not
// undo writes.
type FakeUnitOfWork struct {
	Context    *FakeUnitOfWorkContext
	BeginError error
}

func NewFakeUnitOfWork(
	reminderRepository *reminder.FakeRepository,
	ownerRepository *owner.FakeRepository,
) *FakeUnitOfWork {
	return &FakeUnitOfWork{
		Context: NewFakeUnitOfWorkContext(reminderRepository, ownerRepository),
	}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) (Context, error) {
	if u.BeginError != nil {
		return nil, u.BeginError
	}
	return u.Context, nil
}
