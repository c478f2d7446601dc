package snoozereminder

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

type Input struct {
	ReminderID reminder.ID
	Expression string
}

type Result struct {
	Original reminder.Reminder
	Clone    reminder.Reminder
	Owner    owner.Owner
}

type service struct {
	log               logging.Logger
	unitOfWork        uow.UnitOfWork
	parser            reminder.TimeExpressionParser
	identities        reminder.IdentityGenerator
	events            reminder.EventPublisher
	defaultExpression string
	defaultTimeZone   string
	now               func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	parser reminder.TimeExpressionParser,
	identities reminder.IdentityGenerator,
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
	if identities == nil {
		panic(e.NewNilArgumentError("identities"))
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
		identities:        identities,
		events:            events,
		defaultExpression: defaultExpression,
		defaultTimeZone:   defaultTimeZone,
		now:               now,
	}
}

// Run creates a continuation of the reminder due at the moment the
// expression resolves to, relative to now. A scheduled original is fired
// early; a fired one may be snoozed as well. Each reminder is snoozed at most
// once, so a repeated click on the same link creates no second clone.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	expression := strings.ToLower(strings.TrimSpace(input.Expression))
	if expression == "" {
		return result, reminder.ErrParseExpression
	}
	secret, err := s.identities.GenerateSecret()
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
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
	if rem.Status != reminder.StatusScheduled && rem.Status != reminder.StatusFired {
		return result, reminder.ErrReminderNotActive
	}

	o, err := tx.Owners().GetByAddress(ctx, rem.OwnerAddress)
	if errors.Is(err, owner.ErrOwnerDoesNotExist) {
		o, err = owner.Owner{Address: rem.OwnerAddress, TimeZone: s.defaultTimeZone}, nil
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}

	dueAt, err := s.resolve(expression, o, now)
	if err != nil {
		return result, err
	}

	ok, err := tx.Reminders().UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: rem.Status,
		Status:         reminder.StatusFired,
		SnoozedAt:      c.NewOptional(now, true),
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}
	if !ok {
		// Already snoozed, or moved on by a concurrent action.
		return result, reminder.ErrReminderNotActive
	}
	rem.Status = reminder.StatusFired

	target := c.Email(expression + "@" + rem.TargetAddress.Domain())
	clone, err := tx.Reminders().Create(ctx, rem.CloneInput(
		s.identities.GenerateMessageID(),
		secret,
		target,
		dueAt.UTC(),
		now,
	))
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("input", input))
		return result, err
	}

	s.log.Info(
		ctx,
		"Reminder has been snoozed.",
		logging.Entry("reminderID", rem.ID),
		logging.Entry("cloneID", clone.ID),
		logging.Entry("dueAt", clone.DueAt.Value),
	)
	s.events.Publish(ctx, reminder.Event{Type: reminder.EventSnoozed, Reminder: rem, At: now})
	s.events.Publish(ctx, reminder.Event{Type: reminder.EventScheduled, Reminder: clone, At: now})
	return Result{Original: rem, Clone: clone, Owner: o}, nil
}

func (s *service) resolve(expression string, o owner.Owner, now time.Time) (time.Time, error) {
	if expression == reminder.ReleaseNowExpression {
		return now, nil
	}
	if reminder.IsDefaultAlias(expression) {
		expression = o.Expression(s.defaultExpression)
	}
	resolution, err := s.parser.Resolve(expression, now.In(o.Location()))
	if err != nil {
		return time.Time{}, err
	}
	return resolution.DueAt, nil
}
