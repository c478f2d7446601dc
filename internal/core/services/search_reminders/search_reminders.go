package searchreminders

import (
	"context"
	"fmt"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	sendnotice "snoozer/internal/core/services/send_notice"
	"strings"
	"time"
)

const MAX_RESULTS = 20

type Input struct {
	Owner     owner.Owner
	Query     string
	InReplyTo c.Optional[string]
}

type Result struct {
	Count int
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	notices    services.Service[sendnotice.Input, sendnotice.Result]
	links      *action.LinkBuilder
	now        func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	notices services.Service[sendnotice.Input, sendnotice.Result],
	links *action.LinkBuilder,
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
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{log: log, unitOfWork: unitOfWork, notices: notices, links: links, now: now}
}

// Run mails the owner the most recent reminders whose subject contains the
// query. An empty query matches everything.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	query := strings.TrimSpace(input.Query)

	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner.Address))
		return result, err
	}
	defer tx.Rollback(ctx)

	found, err := tx.Reminders().Search(ctx, input.Owner.Address, query, MAX_RESULTS)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("owner", input.Owner.Address))
		return result, err
	}

	items := make([]notification.Item, 0, len(found))
	for _, rem := range found {
		item, err := s.links.Item(rem)
		if err != nil {
			logging.Error(ctx, s.log, err, logging.Entry("reminderID", rem.ID))
			return result, err
		}
		items = append(items, item)
	}

	text := fmt.Sprintf("Reminders matching %q:", query)
	if query == "" {
		text = "Your most recent reminders:"
	}
	err = sendnotice.Send(ctx, s.notices, notification.Notification{
		Kind:      notification.KindSearchResults,
		To:        input.Owner.Address,
		Subject:   "Search results",
		InReplyTo: input.InReplyTo,
		Text:      text,
		Now:       s.now(),
		TimeZone:  input.Owner.TimeZone,
		Items:     items,
	})
	if err != nil {
		return result, err
	}
	return Result{Count: len(items)}, nil
}
