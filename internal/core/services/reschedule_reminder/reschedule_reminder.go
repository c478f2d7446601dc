package reschedulereminder

import (
	"context"
	"errors"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	"strings"
	"time"
)

var ErrAmbiguousInput = errors.New("exactly one of expression and due time is required")

type Input struct {
	ReminderID reminder.ID
	Expression c.Optional[string]
	DueAt      c.Optional[time.Time]
	Owner      c.Optional[c.Email]
}

type Result struct {
	Reminder reminder.Reminder
}

type service struct {
	log               logging.Logger
	unitOfWork        uow.UnitOfWork
	parser            reminder.TimeExpressionParser
	events            reminder.EventPublisher
	defaultExpression string
	defaultTimeZone   string
	now               func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	parser reminder.TimeExpressionParser,
	events reminder.EventPublisher,
	defaultExpression string,
	defaultTimeZone string,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if parser == nil {
		panic(e.NewNilArgumentError("parser"))
	}
	if events == nil {
		panic(e.NewNilArgumentError("events"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:               log,
		unitOfWork:        unitOfWork,
		parser:            parser,
		events:            events,
		defaultExpression: defaultExpression,
		defaultTimeZone:   defaultTimeZone,
		now:               now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Expression.IsPresent == input.DueAt.IsPresent {
		return result, ErrAmbiguousInput
	}
	now := s.now()

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

	dueAt := input.DueAt.Value
	if input.Expression.IsPresent {
		o, err := tx.Owners().GetByAddress(ctx, rem.OwnerAddress)
		if errors.Is(err, owner.ErrOwnerDoesNotExist) {
			o, err = owner.Owner{Address: rem.OwnerAddress, TimeZone: s.defaultTimeZone}, nil
		}
		if err != nil {
			logging.Error(ctx, s.log, err, logging.Entry("input", input))
			return result, err
		}
		expression := strings.ToLower(strings.TrimSpace(input.Expression.Value))
		if reminder.IsDefaultAlias(expression) {
			expression = o.Expression(s.defaultExpression)
		}
		resolution, err := s.parser.Resolve(expression, now.In(o.Location()))
		if err != nil {
			return result, err
		}
		dueAt = resolution.DueAt
	}
	if !dueAt.After(now) {
		return result, reminder.ErrInvalidDueAt
	}

	ok, err := tx.Reminders().UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusScheduled,
		DoDueAtUpdate:  true,
		DueAt:          c.NewOptional(dueAt.UTC(), true),
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

	rem.DueAt = c.NewOptional(dueAt.UTC(), true)
	s.log.Info(ctx, "Reminder has been rescheduled.", logging.Entry("reminderID", rem.ID), logging.Entry("dueAt", dueAt))
	s.events.Publish(ctx, reminder.Event{Type: reminder.EventRescheduled, Reminder: rem, At: now})
	return Result{Reminder: rem}, nil
}
