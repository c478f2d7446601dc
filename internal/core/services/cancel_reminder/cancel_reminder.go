package cancelreminder

import (
	"context"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	"time"
)

type Input struct {
	ReminderID reminder.ID
	// Owner restricts the operation to reminders of the given address.
	Owner c.Optional[c.Email]
}

type Result struct {
	Reminder reminder.Reminder
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	events     reminder.EventPublisher
	now        func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	events reminder.EventPublisher,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if events == nil {
		panic(e.NewNilArgumentError("events"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:        log,
		unitOfWork: unitOfWork,
		events:     events,
		now:        now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}
	defer tx.Rollback(ctx)

	rem, err := tx.Reminders().GetByID(ctx, input.ReminderID)
	if err != nil {
		return result, err
	}
	if input.Owner.IsPresent && rem.OwnerAddress != input.Owner.Value {
		return result, reminder.ErrReminderDoesNotExist
	}

	ok, err := tx.Reminders().UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusCancelled,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}
	if !ok {
		return result, reminder.ErrReminderNotActive
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}

	rem.Status = reminder.StatusCancelled
	s.log.Info(ctx, "Reminder has been cancelled.", logging.Entry("reminderID", rem.ID))
	s.events.Publish(ctx, reminder.Event{Type: reminder.EventCancelled, Reminder: rem, At: s.now()})
	return Result{Reminder: rem}, nil
}
