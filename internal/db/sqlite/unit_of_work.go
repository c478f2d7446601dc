package sqlite

import (
	"context"
	"database/sql"
	"errors"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"

	"github.com/jmoiron/sqlx"
)

type sqlxUnitOfWorkContext struct {
	tx *sqlx.Tx
}

func (c *sqlxUnitOfWorkContext) Commit(ctx context.Context) error {
	return c.tx.Commit()
}

// Rollback after Commit is a no-op so it can always be deferred.
func (c *sqlxUnitOfWorkContext) Rollback(ctx context.Context) error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (c *sqlxUnitOfWorkContext) Reminders() reminder.Repository {
	return NewSqlxReminderRepository(c.tx)
}

func (c *sqlxUnitOfWorkContext) Owners() owner.Repository {
	return NewSqlxOwnerRepository(c.tx)
}

type SqlxUnitOfWork struct {
	db *sqlx.DB
}

func NewSqlxUnitOfWork(db *sqlx.DB) *SqlxUnitOfWork {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &SqlxUnitOfWork{db: db}
}

func (u *SqlxUnitOfWork) Begin(ctx context.Context) (uow.Context, error) {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlxUnitOfWorkContext{tx: tx}, nil
}
