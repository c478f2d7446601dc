package fireduereminders

import (
	"context"
	"errors"
	"fmt"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	"time"
)

type Input struct {
	Limit uint
}

type Result struct {
	Fired   int
	Skipped int
	Failed  int
}

type service struct {
	log             logging.Logger
	unitOfWork      uow.UnitOfWork
	identities      reminder.IdentityGenerator
	links           *action.LinkBuilder
	dispatcher      notification.Dispatcher
	events          reminder.EventPublisher
	metrics         metrics.Recorder
	defaultTimeZone string
	now             func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	identities reminder.IdentityGenerator,
	links *action.LinkBuilder,
	dispatcher notification.Dispatcher,
	events reminder.EventPublisher,
	metrics metrics.Recorder,
	defaultTimeZone string,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if identities == nil {
		panic(e.NewNilArgumentError("identities"))
	}
	if links == nil {
		panic(e.NewNilArgumentError("links"))
	}
	if dispatcher == nil {
		panic(e.NewNilArgumentError("dispatcher"))
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
		log:             log,
		unitOfWork:      unitOfWork,
		identities:      identities,
		links:           links,
		dispatcher:      dispatcher,
		events:          events,
		metrics:         metrics,
		defaultTimeZone: defaultTimeZone,
		now:             now,
	}
}

// Run fires every scheduled reminder due at the current moment. A reminder
// is claimed, and its recurrence clone stored, before the email goes out; a
// failed delivery is logged and not retried.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	now := s.now()
	due, err := s.readDue(ctx, now, input.Limit)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}

	for _, rem := range due {
		err := s.fire(ctx, rem, now)
		switch {
		case errors.Is(err, reminder.ErrReminderNotActive):
			result.Skipped++
		case err != nil:
			result.Failed++
		default:
			result.Fired++
		}
	}

	if len(due) > 0 {
		s.log.Info(ctx, "Due reminders have been processed.", logging.Entry("result", result))
	}
	return result, nil
}

func (s *service) readDue(ctx context.Context, now time.Time, limit uint) ([]reminder.Reminder, error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return tx.Reminders().ReadScheduledDueBefore(ctx, now, limit)
}

type claim struct {
	fired reminder.Reminder
	owner owner.Owner
	clone c.Optional[reminder.Reminder]
}

func (s *service) fire(ctx context.Context, rem reminder.Reminder, now time.Time) error {
	claimed, err := s.claim(ctx, rem, now)
	if errors.Is(err, reminder.ErrReminderNotActive) {
		s.log.Info(ctx, "Reminder is no longer due, skipping.", logging.Entry("reminderID", rem.ID))
		return err
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return err
	}
	s.metrics.ReminderFired()

	n, err := s.buildNotification(claimed, now)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
		return err
	}
	if err := s.dispatcher.Send(ctx, n); err != nil {
		s.metrics.DispatchFailed(string(notification.KindReminder))
		logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID), logging.Entry("to", n.To))
		return err
	}
	s.log.Info(ctx, "Reminder has been sent.", logging.Entry("reminderID", rem.ID))

	s.events.Publish(ctx, reminder.Event{Type: reminder.EventFired, Reminder: claimed.fired, At: now})
	if claimed.clone.IsPresent {
		s.events.Publish(ctx, reminder.Event{Type: reminder.EventScheduled, Reminder: claimed.clone.Value, At: now})
	}
	return nil
}

func (s *service) claim(ctx context.Context, rem reminder.Reminder, now time.Time) (result claim, err error) {
	_, recurring := rem.Recurrence()
	var cloneSecret c.Secret
	if recurring {
		cloneSecret, err = s.identities.GenerateSecret()
		if err != nil {
			return result, err
		}
	}

	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer tx.Rollback(ctx)

	o, err := tx.Owners().GetByAddress(ctx, rem.OwnerAddress)
	if errors.Is(err, owner.ErrOwnerDoesNotExist) {
		o, err = owner.Owner{Address: rem.OwnerAddress, TimeZone: s.defaultTimeZone}, nil
	}
	if err != nil {
		return result, err
	}

	ok, err := tx.Reminders().UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusFired,
		// A reschedule committed after the read moves the due time out of reach.
		DueBefore: c.NewOptional(now, true),
	})
	if err != nil {
		return result, err
	}
	if !ok {
		return result, reminder.ErrReminderNotActive
	}

	if recurrence, ok := rem.Recurrence(); ok {
		next := nextOccurrence(recurrence, rem.DueAt.Value.In(o.Location()), now)
		clone, err := tx.Reminders().Create(ctx, rem.CloneInput(
			s.identities.GenerateMessageID(),
			cloneSecret,
			rem.TargetAddress,
			next.UTC(),
			now,
		))
		if err != nil {
			return result, err
		}
		result.clone = c.NewOptional(clone, true)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	rem.Status = reminder.StatusFired
	result.fired = rem
	result.owner = o
	return result, nil
}

// nextOccurrence skips periods missed while no pass was running, so a long
// outage produces a single catch-up reminder.
func nextOccurrence(recurrence reminder.Recurrence, dueAt time.Time, now time.Time) time.Time {
	next := recurrence.NextFrom(dueAt)
	for !next.After(now) {
		next = recurrence.NextFrom(next)
	}
	return next
}

func (s *service) buildNotification(claimed claim, now time.Time) (n notification.Notification, err error) {
	rem := claimed.fired
	links, err := s.links.SnoozeAll(rem)
	if err != nil {
		return n, err
	}
	text := "Here is the message you asked to be reminded about."
	if claimed.clone.IsPresent {
		cancel, err := s.links.Cancel(claimed.clone.Value)
		if err != nil {
			return n, err
		}
		cancel.Label = "Stop repeating"
		links = append(links, cancel)
		recurrence, _ := rem.Recurrence()
		text = fmt.Sprintf("Here is your %s reminder. It will repeat until you stop it.", recurrence)
	}

	n = notification.Notification{
		Kind:      notification.KindReminder,
		To:        rem.OwnerAddress,
		Subject:   notification.ReplySubject(rem.Subject),
		InReplyTo: c.NewOptional(string(rem.RootMessageID), rem.RootMessageID != ""),
		Text:      text,
		DueAt:     rem.DueAt,
		Now:       now,
		TimeZone:  claimed.owner.TimeZone,
		Notes:     rem.Notes,
		Links:     links,
	}
	return n, nil
}
