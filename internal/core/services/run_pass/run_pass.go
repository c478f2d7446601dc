package runpass

import (
	"context"
	"errors"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/lease"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/services"
	fireduereminders "snoozer/internal/core/services/fire_due_reminders"
	ingestmessages "snoozer/internal/core/services/ingest_messages"
	processunprocessed "snoozer/internal/core/services/process_unprocessed"
	"time"
)

const LEASE_KEY = "run_pass"

type Input struct {
	Limit uint
}

type Result struct {
	Skipped    bool
	Ingested   ingestmessages.Result
	Classified processunprocessed.Result
	Fired      fireduereminders.Result
}

type service struct {
	log      logging.Logger
	locker   lease.Locker
	leaseTTL time.Duration
	ingest   services.Service[ingestmessages.Input, ingestmessages.Result]
	process  services.Service[processunprocessed.Input, processunprocessed.Result]
	fire     services.Service[fireduereminders.Input, fireduereminders.Result]
	metrics  metrics.Recorder
	now      func() time.Time
}

// New builds one driver pass: ingest, classify, fire. ingest may be nil when
// messages arrive through the push queue only.
func New(
	log logging.Logger,
	locker lease.Locker,
	leaseTTL time.Duration,
	ingest services.Service[ingestmessages.Input, ingestmessages.Result],
	process services.Service[processunprocessed.Input, processunprocessed.Result],
	fire services.Service[fireduereminders.Input, fireduereminders.Result],
	metrics metrics.Recorder,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if locker == nil {
		panic(e.NewNilArgumentError("locker"))
	}
	if process == nil {
		panic(e.NewNilArgumentError("process"))
	}
	if fire == nil {
		panic(e.NewNilArgumentError("fire"))
	}
	if metrics == nil {
		panic(e.NewNilArgumentError("metrics"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:      log,
		locker:   locker,
		leaseTTL: leaseTTL,
		ingest:   ingest,
		process:  process,
		fire:     fire,
		metrics:  metrics,
		now:      now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	started := s.now()
	held, err := s.locker.Acquire(ctx, LEASE_KEY, s.leaseTTL)
	if errors.Is(err, lease.ErrLeaseHeld) {
		s.log.Info(ctx, "Another pass is running, skip.")
		return Result{Skipped: true}, nil
	}
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	defer func() {
		if err := held.Release(ctx); err != nil {
			logging.Error(ctx, s.log, err)
		}
	}()

	if s.ingest != nil {
		result.Ingested, err = s.ingest.Run(ctx, ingestmessages.Input{})
		if err != nil {
			s.log.Warning(ctx, "Ingestion failed, continue with stored messages.", logging.Entry("err", err))
		}
	}

	result.Classified, err = s.process.Run(ctx, processunprocessed.Input{Limit: input.Limit})
	if err != nil {
		return result, err
	}

	result.Fired, err = s.fire.Run(ctx, fireduereminders.Input{Limit: input.Limit})
	if err != nil {
		return result, err
	}

	s.metrics.PassCompleted(s.now().Sub(started))
	s.log.Debug(ctx, "Pass completed.", logging.Entry("result", result))
	return result, nil
}
