package notificationdispatcher

import (
	"context"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
)

// Log writes notifications to the log instead of sending them. Used in test mode.
type Log struct {
	log logging.Logger
}

func NewLog(log logging.Logger) *Log {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	return &Log{log: log}
}

func (d *Log) Send(ctx context.Context, n notification.Notification) error {
	rendered, err := Render(n)
	if err != nil {
		return err
	}
	d.log.Info(
		ctx,
		"Notification has been sent.",
		logging.Entry("kind", n.Kind),
		logging.Entry("to", n.To),
		logging.Entry("subject", n.Subject),
		logging.Entry("body", rendered.Text),
	)
	return nil
}
