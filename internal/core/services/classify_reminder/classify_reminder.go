package classifyreminder

import (
	"context"
	"errors"
	"fmt"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	searchreminders "snoozer/internal/core/services/search_reminders"
	senddigest "snoozer/internal/core/services/send_digest"
	sendnotice "snoozer/internal/core/services/send_notice"
	setdefaultexpression "snoozer/internal/core/services/set_default_expression"
	"time"
)

const (
	OutcomeScheduled    = "scheduled"
	OutcomeUnrecognized = "unrecognized"
	OutcomeDigest       = "digest"
	OutcomeSearch       = "search"
	OutcomeSetDefault   = "set_default"
	OutcomeIgnored      = "ignored"
)

type Input struct {
	Reminder reminder.Reminder
}

type Result struct {
	Outcome  string
	Reminder reminder.Reminder
}

type Config struct {
	IgnoredLocalParts []string
	DefaultExpression string
	DefaultTimeZone   string
}

type Commands struct {
	Digest     services.Service[senddigest.Input, senddigest.Result]
	Search     services.Service[searchreminders.Input, searchreminders.Result]
	SetDefault services.Service[setdefaultexpression.Input, setdefaultexpression.Result]
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	parser     reminder.TimeExpressionParser
	identities reminder.IdentityGenerator
	notices    services.Service[sendnotice.Input, sendnotice.Result]
	commands   Commands
	events     reminder.EventPublisher
	metrics    metrics.Recorder
	config     Config
	now        func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	parser reminder.TimeExpressionParser,
	identities reminder.IdentityGenerator,
	notices services.Service[sendnotice.Input, sendnotice.Result],
	commands Commands,
	events reminder.EventPublisher,
	metrics metrics.Recorder,
	config Config,
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
	if notices == nil {
		panic(e.NewNilArgumentError("notices"))
	}
	if commands.Digest == nil {
		panic(e.NewNilArgumentError("commands.Digest"))
	}
	if commands.Search == nil {
		panic(e.NewNilArgumentError("commands.Search"))
	}
	if commands.SetDefault == nil {
		panic(e.NewNilArgumentError("commands.SetDefault"))
	}
	if events == nil {
		panic(e.NewNilArgumentError("events"))
	}
	if metrics == nil {
		panic(e.NewNilArgumentError("metrics"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:        log,
		unitOfWork: unitOfWork,
		parser:     parser,
		identities: identities,
		notices:    notices,
		commands:   commands,
		events:     events,
		metrics:    metrics,
		config:     config,
		now:        now,
	}
}

// Run decides what an unprocessed reminder asks for. Commands and unknown
// expressions move it to Ignored before any reply is sent, so a reply is
// attempted at most once. Returns reminder.ErrReminderNotActive if the
// reminder was classified concurrently.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	rem := input.Reminder
	if rem.Status != reminder.StatusUnprocessed {
		return result, reminder.ErrReminderNotActive
	}

	o, err := s.loadOwner(ctx, rem.OwnerAddress)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return result, err
	}

	cmd := reminder.ParseCommand(rem.TargetAddress.LocalPart(), s.config.IgnoredLocalParts)
	v := &classification{service: s, ctx: ctx, reminder: rem, owner: o}
	if err := cmd.Accept(v); err != nil {
		return result, err
	}

	s.metrics.ReminderClassified(v.outcome)
	s.log.Info(
		ctx,
		"Reminder has been classified.",
		logging.Entry("reminderID", rem.ID),
		logging.Entry("outcome", v.outcome),
	)
	return Result{Outcome: v.outcome, Reminder: v.reminder}, nil
}

func (s *service) loadOwner(ctx context.Context, address c.Email) (o owner.Owner, err error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return o, err
	}
	defer tx.Rollback(ctx)

	o, err = tx.Owners().GetByAddress(ctx, address)
	if err == nil || !errors.Is(err, owner.ErrOwnerDoesNotExist) {
		return o, err
	}

	secret, err := s.identities.GenerateSecret()
	if err != nil {
		return o, err
	}
	o, _, err = tx.Owners().GetOrCreate(ctx, owner.GetOrCreateInput{
		Address:   address,
		TimeZone:  s.config.DefaultTimeZone,
		Secret:    secret,
		CreatedAt: s.now(),
	})
	if err != nil {
		return o, err
	}
	return o, tx.Commit(ctx)
}

// transition moves the reminder out of Unprocessed.
func (s *service) transition(
	ctx context.Context,
	rem reminder.Reminder,
	status reminder.Status,
	dueAt c.Optional[time.Time],
) (reminder.Reminder, error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return rem, err
	}
	defer tx.Rollback(ctx)

	ok, err := tx.Reminders().UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusUnprocessed,
		Status:         status,
		DoDueAtUpdate:  dueAt.IsPresent,
		DueAt:          dueAt,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return rem, err
	}
	if !ok {
		s.log.Info(ctx, "Reminder has already been classified.", logging.Entry("reminderID", rem.ID))
		return rem, reminder.ErrReminderNotActive
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return rem, err
	}

	rem.Status = status
	if dueAt.IsPresent {
		rem.DueAt = dueAt
	}
	return rem, nil
}

func (s *service) sendUnrecognized(ctx context.Context, rem reminder.Reminder, o owner.Owner, text string) {
	err := sendnotice.Send(ctx, s.notices, notification.Notification{
		Kind:      notification.KindUnrecognized,
		To:        o.Address,
		Subject:   notification.ReplySubject(rem.Subject),
		InReplyTo: c.NewOptional(string(rem.MessageID), true),
		Text:      text,
		Now:       s.now(),
		TimeZone:  o.TimeZone,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
	}
}

func unrecognizedText(target c.Email) string {
	domain := target.Domain()
	return fmt.Sprintf(
		"Sorry, we could not understand %s. Try an address like tomorrow@%s, 2hours@%s or friday-9am@%s.",
		target, domain, domain, domain,
	)
}

type classification struct {
	service  *service
	ctx      context.Context
	reminder reminder.Reminder
	owner    owner.Owner
	outcome  string
}

func (v *classification) VisitTimeExpression(cmd *reminder.TimeExpressionCommand) error {
	s := v.service
	expression := cmd.Expression
	if reminder.IsDefaultAlias(expression) {
		expression = v.owner.Expression(s.config.DefaultExpression)
	}

	reference := v.reminder.CreatedAt.In(v.owner.Location())
	resolution, err := s.parser.Resolve(expression, reference)
	if errors.Is(err, reminder.ErrParseExpression) {
		updated, err := s.transition(v.ctx, v.reminder, reminder.StatusIgnored, c.Optional[time.Time]{})
		if err != nil {
			return err
		}
		v.reminder = updated
		v.outcome = OutcomeUnrecognized
		s.sendUnrecognized(v.ctx, updated, v.owner, unrecognizedText(updated.TargetAddress))
		return nil
	}
	if err != nil {
		logging.Error(v.ctx, s.log, err, logging.Entry("reminderID", v.reminder.ID))
		return err
	}

	dueAt := c.NewOptional(resolution.DueAt.UTC(), true)
	updated, err := s.transition(v.ctx, v.reminder, reminder.StatusScheduled, dueAt)
	if err != nil {
		return err
	}
	v.reminder = updated
	v.outcome = OutcomeScheduled
	s.events.Publish(v.ctx, reminder.Event{Type: reminder.EventScheduled, Reminder: updated, At: s.now()})
	return nil
}

func (v *classification) VisitDigest(cmd *reminder.DigestCommand) error {
	if err := v.ignore(OutcomeDigest); err != nil {
		return err
	}
	_, err := v.service.commands.Digest.Run(v.ctx, senddigest.Input{
		Owner:     v.owner,
		InReplyTo: c.NewOptional(string(v.reminder.MessageID), true),
	})
	v.logCommandError(err)
	return nil
}

func (v *classification) VisitSearch(cmd *reminder.SearchCommand) error {
	if err := v.ignore(OutcomeSearch); err != nil {
		return err
	}
	_, err := v.service.commands.Search.Run(v.ctx, searchreminders.Input{
		Owner:     v.owner,
		Query:     v.reminder.Subject,
		InReplyTo: c.NewOptional(string(v.reminder.MessageID), true),
	})
	v.logCommandError(err)
	return nil
}

func (v *classification) VisitSetDefault(cmd *reminder.SetDefaultCommand) error {
	if err := v.ignore(OutcomeSetDefault); err != nil {
		return err
	}
	_, err := v.service.commands.SetDefault.Run(v.ctx, setdefaultexpression.Input{
		Owner:      v.owner,
		Expression: v.reminder.Subject,
		InReplyTo:  c.NewOptional(string(v.reminder.MessageID), true),
	})
	if errors.Is(err, reminder.ErrParseExpression) {
		v.service.sendUnrecognized(
			v.ctx,
			v.reminder,
			v.owner,
			fmt.Sprintf("Sorry, %q cannot be used as your default time. Put an expression like tomorrow or 9am in the subject.", v.reminder.Subject),
		)
		return nil
	}
	v.logCommandError(err)
	return nil
}

func (v *classification) VisitIgnore(cmd *reminder.IgnoreCommand) error {
	return v.ignore(OutcomeIgnored)
}

func (v *classification) ignore(outcome string) error {
	updated, err := v.service.transition(v.ctx, v.reminder, reminder.StatusIgnored, c.Optional[time.Time]{})
	if err != nil {
		return err
	}
	v.reminder = updated
	v.outcome = outcome
	return nil
}

func (v *classification) logCommandError(err error) {
	if err != nil {
		logging.Error(v.ctx, v.service.log, err, logging.Entry("reminderID", v.reminder.ID))
	}
}
