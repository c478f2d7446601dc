package sendnotice

import (
	"context"
	"errors"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/domain/notification"
	ratelimiter "snoozer/internal/core/domain/rate_limiter"
	"snoozer/internal/core/services"
)

type Input struct {
	Notification notification.Notification
}

func (i Input) GetRateLimitKey() string {
	return ratelimiter.NoticeKey(string(i.Notification.To))
}

type Result struct{}

type service struct {
	log        logging.Logger
	dispatcher notification.Dispatcher
	metrics    metrics.Recorder
}

// New sends informational notices: everything except the reminder itself.
// Callers usually wrap it with rate limiting per recipient.
func New(
	log logging.Logger,
	dispatcher notification.Dispatcher,
	metrics metrics.Recorder,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if dispatcher == nil {
		panic(e.NewNilArgumentError("dispatcher"))
	}
	if metrics == nil {
		panic(e.NewNilArgumentError("metrics"))
	}
	return &service{log: log, dispatcher: dispatcher, metrics: metrics}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	n := input.Notification
	if err := s.dispatcher.Send(ctx, n); err != nil {
		s.metrics.DispatchFailed(string(n.Kind))
		logging.Error(ctx, s.log, err, logging.Entry("kind", n.Kind), logging.Entry("to", n.To))
		return result, err
	}
	s.log.Info(ctx, "Notice has been sent.", logging.Entry("kind", n.Kind), logging.Entry("to", n.To))
	return result, nil
}

// Send runs the notice service and treats a dropped notice as delivered.
func Send(
	ctx context.Context,
	notices services.Service[Input, Result],
	n notification.Notification,
) error {
	_, err := notices.Run(ctx, Input{Notification: n})
	if errors.Is(err, ratelimiter.ErrRateLimitExceeded) {
		return nil
	}
	return err
}
