package senddigest

import (
	"context"
	"fmt"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	sendnotice "snoozer/internal/core/services/send_notice"
	"time"
)

type Input struct {
	Owner     owner.Owner
	InReplyTo c.Optional[string]
}

type Result struct {
	Count int
}

type service struct {
	log          logging.Logger
	unitOfWork   uow.UnitOfWork
	notices      services.Service[sendnotice.Input, sendnotice.Result]
	links        *action.LinkBuilder
	streamTokens owner.StreamTokenGenerator
	now          func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	notices services.Service[sendnotice.Input, sendnotice.Result],
	links *action.LinkBuilder,
	streamTokens owner.StreamTokenGenerator,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if notices == nil {
		panic(e.NewNilArgumentError("notices"))
	}
	if links == nil {
		panic(e.NewNilArgumentError("links"))
	}
	if streamTokens == nil {
		panic(e.NewNilArgumentError("streamTokens"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:          log,
		unitOfWork:   unitOfWork,
		notices:      notices,
		links:        links,
		streamTokens: streamTokens,
		now:          now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner.Address))
		return result, err
	}
	defer tx.Rollback(ctx)

	upcoming, err := tx.Reminders().ReadByOwnerAndStatus(ctx, input.Owner.Address, reminder.StatusScheduled)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner.Address))
		return result, err
	}

	items := make([]notification.Item, 0, len(upcoming))
	for _, rem := range upcoming {
		item, err := s.links.Item(rem)
		if err != nil {
			logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
			return result, err
		}
		items = append(items, item)
	}

	n := notification.Notification{
		Kind:      notification.KindDigest,
		To:        input.Owner.Address,
		Subject:   "Your upcoming reminders",
		InReplyTo: input.InReplyTo,
		Text:      summary(len(items)),
		Now:       s.now(),
		TimeZone:  input.Owner.TimeZone,
		Items:     items,
	}
	if input.Owner.IsVerified() {
		token := s.streamTokens.GenerateStreamToken(input.Owner.Address)
		n.Links = append(n.Links, s.links.Stream(input.Owner.Address, token))
	}

	if err := sendnotice.Send(ctx, s.notices, n); err != nil {
		return result, err
	}
	return Result{Count: len(items)}, nil
}

func summary(count int) string {
	switch count {
	case 0:
		return "You have no upcoming reminders."
	case 1:
		return "You have 1 upcoming reminder."
	default:
		return fmt.Sprintf("You have %d upcoming reminders.", count)
	}
}
