package createreminder

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

var (
	ErrInvalidOwner = errors.New("owner must be an email address")
	ErrNotesTooLong = errors.New("reminder notes are too long")
)

type Input struct {
	Owner      c.Email
	Subject    string
	Expression string
	Notes      string
}

func (i Input) Validate() error {
	if !i.Owner.IsValid() {
		return ErrInvalidOwner
	}
	if len(i.Subject) > reminder.MAX_SUBJECT_LEN {
		return reminder.ErrInvalidSubject
	}
	if len(i.Notes) > reminder.MAX_NOTES_LEN {
		return ErrNotesTooLong
	}
	return nil
}

type Result struct {
	Reminder reminder.Reminder
}

type Config struct {
	MailDomain        string
	DefaultExpression string
	DefaultTimeZone   string
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	parser     reminder.TimeExpressionParser
	identities reminder.IdentityGenerator
	events     reminder.EventPublisher
	config     Config
	now        func() time.Time
}

// New schedules a reminder without an inbound message, as if the owner had
// mailed <expression>@<mail domain>.
func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	parser reminder.TimeExpressionParser,
	identities reminder.IdentityGenerator,
	events reminder.EventPublisher,
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
	if events == nil {
		panic(e.NewNilArgumentError("events"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:        log,
		unitOfWork: unitOfWork,
		parser:     parser,
		identities: identities,
		events:     events,
		config:     config,
		now:        now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	input.Owner = c.NewEmail(string(input.Owner))
	if err := input.Validate(); err != nil {
		return result, err
	}
	expression := strings.ToLower(strings.TrimSpace(input.Expression))
	if expression == "" {
		return result, reminder.ErrParseExpression
	}

	ownerSecret, err := s.identities.GenerateSecret()
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}
	reminderSecret, err := s.identities.GenerateSecret()
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}
	now := s.now()

	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}
	defer tx.Rollback(ctx)

	o, _, err := tx.Owners().GetOrCreate(ctx, owner.GetOrCreateInput{
		Address:   input.Owner,
		TimeZone:  s.config.DefaultTimeZone,
		Secret:    ownerSecret,
		CreatedAt: now,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}

	resolved := expression
	if reminder.IsDefaultAlias(expression) {
		resolved = o.Expression(s.config.DefaultExpression)
	}
	resolution, err := s.parser.Resolve(resolved, now.In(o.Location()))
	if err != nil {
		return result, err
	}

	rem, err := tx.Reminders().Create(ctx, reminder.CreateInput{
		MessageID:     s.identities.GenerateMessageID(),
		OwnerAddress:  o.Address,
		TargetAddress: c.Email(expression + "@" + s.config.MailDomain),
		Subject:       input.Subject,
		CreatedAt:     now,
		Status:        reminder.StatusScheduled,
		DueAt:         c.NewOptional(resolution.DueAt.UTC(), true),
		Secret:        reminderSecret,
		Notes:         input.Notes,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner))
		return result, err
	}

	s.log.Info(ctx, "Reminder has been created.", logging.Entry("reminderID", rem.ID), logging.Entry("dueAt", rem.DueAt.Value))
	s.events.Publish(ctx, reminder.Event{Type: reminder.EventScheduled, Reminder: rem, At: now})
	return Result{Reminder: rem}, nil
}
