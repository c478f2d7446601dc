package ingestmessages

import (
	"context"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/core/services"
	ingestmessage "snoozer/internal/core/services/ingest_message"
)

type Input struct{}

type Result struct {
	Fetched    int
	Stored     int
	Duplicates int
	Failed     int
}

type service struct {
	log     logging.Logger
	adapter reminder.IngestionAdapter
	ingest  services.Service[ingestmessage.Input, ingestmessage.Result]
}

func New(
	log logging.Logger,
	adapter reminder.IngestionAdapter,
	ingest services.Service[ingestmessage.Input, ingestmessage.Result],
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if adapter == nil {
		panic(e.NewNilArgumentError("adapter"))
	}
	if ingest == nil {
		panic(e.NewNilArgumentError("ingest"))
	}
	return &service{log: log, adapter: adapter, ingest: ingest}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	messages, err := s.adapter.FetchNewMessages(ctx)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	result.Fetched = len(messages)

	for _, msg := range messages {
		ingested, err := s.ingest.Run(ctx, ingestmessage.Input{Message: msg})
		switch {
		case err != nil:
			result.Failed++
			s.log.Warning(
				ctx,
				"Message could not be ingested.",
				logging.Entry("messageID", msg.MessageID),
				logging.Entry("err", err),
			)
		case ingested.Duplicate:
			result.Duplicates++
		default:
			result.Stored++
		}
	}

	if result.Fetched > 0 {
		s.log.Info(ctx, "Messages have been ingested.", logging.Entry("result", result))
	}
	return result, nil
}
