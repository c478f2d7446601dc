package verifyowner

import (
	"context"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	"time"
)

type Input struct {
	OwnerID owner.ID
}

type Result struct {
	Owner owner.Owner
}

type service struct {
	log        logging.Logger
	unitOfWork uow.UnitOfWork
	now        func() time.Time
}

func New(log logging.Logger, unitOfWork uow.UnitOfWork, now func() time.Time) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{log: log, unitOfWork: unitOfWork, now: now}
}

// Run is idempotent; the first verification time is kept.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	tx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.OwnerID))
		return result, err
	}
	defer tx.Rollback(ctx)

	if err := tx.Owners().MarkVerified(ctx, input.OwnerID, s.now()); err != nil {
		return result, err
	}
	o, err := tx.Owners().GetByID(ctx, input.OwnerID)
	if err != nil {
		return result, err
	}
	if err := tx.Commit(ctx); err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("ownerID", input.OwnerID))
		return result, err
	}

	s.log.Info(ctx, "Owner has been verified.", logging.Entry("ownerID", o.ID))
	return Result{Owner: o}, nil
}
