package processunprocessed

import (
	"context"
	"errors"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	classifyreminder "snoozer/internal/core/services/classify_reminder"
)

type Input struct {
	Limit uint
}

type Result struct {
	Classified int
	Skipped    int
	Failed     int
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	classify   services.Service[classifyreminder.Input, classifyreminder.Result]
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	classify services.Service[classifyreminder.Input, classifyreminder.Result],
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if classify == nil {
		panic(e.NewNilArgumentError("classify"))
	}
	return &service{log: log, unitOfWork: unitOfWork, classify: classify}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	pending, err := s.readUnprocessed(ctx, input.Limit)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}

	for _, rem := range pending {
		_, err := s.classify.Run(ctx, classifyreminder.Input{Reminder: rem})
		switch {
		case errors.Is(err, reminder.ErrReminderNotActive):
			result.Skipped++
		case err != nil:
			result.Failed++
			s.log.Warning(
				ctx,
				"Reminder could not be classified.",
				logging.Entry("reminderID", rem.ID),
				logging.Entry("err", err),
			)
		default:
			result.Classified++
		}
	}
	return result, nil
}

func (s *service) readUnprocessed(ctx context.Context, limit uint) ([]reminder.Reminder, error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return tx.Reminders().ReadUnprocessed(ctx, limit)
}
