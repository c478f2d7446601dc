package setdefaultexpression

import (
	"context"
	"fmt"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	sendnotice "snoozer/internal/core/services/send_notice"
	"strings"
	"time"
)

type Input struct {
	Owner      owner.Owner
	Expression string
	InReplyTo  c.Optional[string]
}

type Result struct {
	Expression string
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	parser     reminder.TimeExpressionParser
	notices    services.Service[sendnotice.Input, sendnotice.Result]
	now        func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	parser reminder.TimeExpressionParser,
	notices services.Service[sendnotice.Input, sendnotice.Result],
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
	if notices == nil {
		panic(e.NewNilArgumentError("notices"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{log: log, unitOfWork: unitOfWork, parser: parser, notices: notices, now: now}
}

// Run stores the expression used for default@ and remind@. Aliases and
// recurring expressions are rejected with reminder.ErrParseExpression.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	expression := strings.ToLower(strings.TrimSpace(input.Expression))
	if expression == "" || reminder.IsDefaultAlias(expression) {
		return result, reminder.ErrParseExpression
	}
	if _, err := reminder.ParseRecurrence(expression); err == nil {
		return result, reminder.ErrParseExpression
	}
	now := s.now()
	resolution, err := s.parser.Resolve(expression, now.In(input.Owner.Location()))
	if err != nil {
		return result, err
	}

	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.Owner.ID))
		return result, err
	}
	defer tx.Rollback(ctx)

	if err := tx.Owners().SetDefaultExpression(ctx, input.Owner.ID, expression); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.Owner.ID))
		return result, err
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.Owner.ID))
		return result, err
	}
	s.log.Info(
		ctx,
		"Default expression has been set.",
		logging.Entry("ownerID", input.Owner.ID),
		logging.Entry("expression", expression),
	)

	err = sendnotice.Send(ctx, s.notices, notification.Notification{
		Kind:      notification.KindDefaultSet,
		To:        input.Owner.Address,
		Subject:   "Default reminder time updated",
		InReplyTo: input.InReplyTo,
		Text:      fmt.Sprintf("Messages sent to default@ or remind@ will now be scheduled for %q.", expression),
		DueAt:     c.NewOptional(resolution.DueAt, true),
		Now:       now,
		TimeZone:  input.Owner.TimeZone,
	})
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.Owner.ID))
	}
	return Result{Expression: expression}, nil
}
