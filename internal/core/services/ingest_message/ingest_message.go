package ingestmessage

import (
	"context"
	"errors"
	"snoozer/internal/core/domain/action"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	sendnotice "snoozer/internal/core/services/send_notice"
	"time"
)

type Input struct {
	Message reminder.InboundMessage
}

type Result struct {
	Reminder     reminder.Reminder
	Duplicate    bool
	OwnerCreated bool
}

type service struct {
	log             logging.Logger
	unitOfWork      uow.UnitOfWork
	identities      reminder.IdentityGenerator
	notices         services.Service[sendnotice.Input, sendnotice.Result]
	links           *action.LinkBuilder
	metrics         metrics.Recorder
	defaultTimeZone string
	now             func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	identities reminder.IdentityGenerator,
	notices services.Service[sendnotice.Input, sendnotice.Result],
	links *action.LinkBuilder,
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
	if notices == nil {
		panic(e.NewNilArgumentError("notices"))
	}
	if links == nil {
		panic(e.NewNilArgumentError("links"))
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
		notices:         notices,
		links:           links,
		metrics:         metrics,
		defaultTimeZone: defaultTimeZone,
		now:             now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	msg := input.Message
	if !msg.From.IsValid() || !msg.To.IsValid() || msg.MessageID == "" {
		return result, reminder.ErrInvalidMessage
	}

	ownerSecret, err := s.identities.GenerateSecret()
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}
	reminderSecret, err := s.identities.GenerateSecret()
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}
	defer tx.Rollback(ctx)

	o, created, err := tx.Owners().GetOrCreate(ctx, owner.GetOrCreateInput{
		Address:   msg.From,
		TimeZone:  s.defaultTimeZone,
		Secret:    ownerSecret,
		CreatedAt: s.now(),
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}

	rem, err := tx.Reminders().Create(ctx, reminder.CreateInput{
		MessageID:     msg.MessageID,
		OwnerAddress:  o.Address,
		TargetAddress: msg.To,
		Subject:       reminder.TruncateSubject(msg.Subject),
		CreatedAt:     receivedAt,
		Status:        reminder.StatusUnprocessed,
		Secret:        reminderSecret,
	})
	if errors.Is(err, reminder.ErrDuplicateMessageID) {
		s.metrics.MessageIngested(true)
		s.log.Info(ctx, "Message has already been ingested.", logging.Entry("messageID", msg.MessageID))
		return Result{Duplicate: true}, nil
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("messageID", msg.MessageID))
		return result, err
	}
	s.metrics.MessageIngested(false)
	s.log.Info(
		ctx,
		"Message has been ingested.",
		logging.Entry("reminderID", rem.ID),
		logging.Entry("to", rem.TargetAddress),
	)

	if created {
		s.sendVerification(ctx, o)
	}
	return Result{Reminder: rem, OwnerCreated: created}, nil
}

func (s *service) sendVerification(ctx context.Context, o owner.Owner) {
	link, err := s.links.Verify(o)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", o.ID))
		return
	}
	err = sendnotice.Send(ctx, s.notices, notification.Notification{
		Kind:     notification.KindVerification,
		To:       o.Address,
		Subject:  "Confirm your address",
		Text:     "We received a message from this address. Confirm it belongs to you to turn on the live feed of your reminders.",
		Now:      s.now(),
		TimeZone: o.TimeZone,
		Links:    []notification.Link{link},
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", o.ID))
	}
}
