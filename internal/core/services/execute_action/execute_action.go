package executeaction

import (
	"context"
	"snoozer/internal/core/domain/action"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	cancelreminder "snoozer/internal/core/services/cancel_reminder"
	snoozereminder "snoozer/internal/core/services/snooze_reminder"
	verifyowner "snoozer/internal/core/services/verify_owner"
	"strconv"
)

// Input mirrors the query of an action link.
type Input struct {
	ID         string
	Action     string
	Expression string
	Token      string
}

type Result struct {
	Action   action.Action
	Reminder reminder.Reminder
	Clone    reminder.Reminder
	Owner    owner.Owner
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	codec      action.TokenCodec
	snooze     services.Service[snoozereminder.Input, snoozereminder.Result]
	cancel     services.Service[cancelreminder.Input, cancelreminder.Result]
	verify     services.Service[verifyowner.Input, verifyowner.Result]
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	codec action.TokenCodec,
	snooze services.Service[snoozereminder.Input, snoozereminder.Result],
	cancel services.Service[cancelreminder.Input, cancelreminder.Result],
	verify services.Service[verifyowner.Input, verifyowner.Result],
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if codec == nil {
		panic(e.NewNilArgumentError("codec"))
	}
	if snooze == nil {
		panic(e.NewNilArgumentError("snooze"))
	}
	if cancel == nil {
		panic(e.NewNilArgumentError("cancel"))
	}
	if verify == nil {
		panic(e.NewNilArgumentError("verify"))
	}
	return &service{
		log:        log,
		unitOfWork: unitOfWork,
		codec:      codec,
		snooze:     snooze,
		cancel:     cancel,
		verify:     verify,
	}
}

// Run authorizes the link with the secret of the record it points to and
// applies the action. Any token problem yields action.ErrInvalidToken.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	a, err := action.ParseAction(input.Action)
	if err != nil {
		return result, err
	}
	result.Action = a
	id, err := strconv.ParseInt(input.ID, 10, 64)
	if err != nil {
		if a == action.ActionVerify {
			return result, owner.ErrOwnerDoesNotExist
		}
		return result, reminder.ErrReminderDoesNotExist
	}

	if a == action.ActionVerify {
		return s.runVerify(ctx, owner.ID(id), input, result)
	}

	rem, err := s.loadReminder(ctx, reminder.ID(id))
	if err != nil {
		return result, err
	}
	if err := action.Authorize(s.codec, action.Token(input.Token), rem.Secret, string(rem.MessageID)); err != nil {
		s.log.Warning(ctx, "Action link rejected.", logging.Entry("reminderID", rem.ID), logging.Entry("action", a))
		return result, err
	}

	switch a {
	case action.ActionSnooze:
		snoozed, err := s.snooze.Run(ctx, snoozereminder.Input{ReminderID: rem.ID, Expression: input.Expression})
		if err != nil {
			return result, err
		}
		result.Reminder = snoozed.Original
		result.Clone = snoozed.Clone
		result.Owner = snoozed.Owner
	case action.ActionCancel:
		cancelled, err := s.cancel.Run(ctx, cancelreminder.Input{ReminderID: rem.ID})
		if err != nil {
			return result, err
		}
		result.Reminder = cancelled.Reminder
	default:
		return result, e.NewInvalidStateErrorf("unexpected action: %v", a)
	}
	return result, nil
}

func (s *service) runVerify(ctx context.Context, id owner.ID, input Input, result Result) (Result, error) {
	o, err := s.loadOwner(ctx, id)
	if err != nil {
		return result, err
	}
	if err := action.Authorize(s.codec, action.Token(input.Token), o.Secret, string(o.Address)); err != nil {
		s.log.Warning(ctx, "Verification link rejected.", logging.Entry("ownerID", o.ID))
		return result, err
	}
	verified, err := s.verify.Run(ctx, verifyowner.Input{OwnerID: o.ID})
	if err != nil {
		return result, err
	}
	result.Owner = verified.Owner
	return result, nil
}

func (s *service) loadReminder(ctx context.Context, id reminder.ID) (reminder.Reminder, error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return reminder.Reminder{}, err
	}
	defer tx.Rollback(ctx)
	return tx.Reminders().GetByID(ctx, id)
}

func (s *service) loadOwner(ctx context.Context, id owner.ID) (owner.Owner, error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return owner.Owner{}, err
	}
	defer tx.Rollback(ctx)
	return tx.Owners().GetByID(ctx, id)
}
