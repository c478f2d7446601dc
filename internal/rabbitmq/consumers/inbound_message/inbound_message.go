package inboundmessage

import (
	"context"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/core/services"
	ingestmessage "snoozer/internal/core/services/ingest_message"
	"snoozer/internal/rabbitmq/schema"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type MessageParser interface {
	Parse(raw []byte, fetchedAt time.Time) (reminder.InboundMessage, error)
}

type deliverySource interface {
	Consume(ctx context.Context, queue string) (<-chan amqp091.Delivery, error)
}

type Disposition int

const (
	Ack Disposition = iota
	Requeue
)

type Consumer struct {
	log     logging.Logger
	channel deliverySource
	queue   string
	parser  MessageParser
	service services.Service[ingestmessage.Input, ingestmessage.Result]
}

func New(
	log logging.Logger,
	channel deliverySource,
	queue string,
	parser MessageParser,
	service services.Service[ingestmessage.Input, ingestmessage.Result],
) *Consumer {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	if parser == nil {
		panic(e.NewNilArgumentError("parser"))
	}
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Consumer{log: log, channel: channel, queue: queue, parser: parser, service: service}
}

func (c *Consumer) Consume(ctx context.Context) error {
	deliveries, err := c.channel.Consume(ctx, c.queue)
	if err != nil {
		c.log.Error(ctx, "Could not start consuming.", logging.Entry("queue", c.queue), logging.Entry("err", err))
		return err
	}

	go func() {
		for delivery := range deliveries {
			switch c.Handle(ctx, delivery.Body, delivery.Redelivered) {
			case Requeue:
				if err := delivery.Nack(false, true); err != nil {
					c.log.Error(ctx, "Could not NACK AMQP message.", logging.Entry("err", err))
				}
			default:
				if err := delivery.Ack(false); err != nil {
					c.log.Error(ctx, "Could not ACK AMQP message.", logging.Entry("err", err))
				}
			}
		}
	}()
	return nil
}

// Handle ingests one delivery body. Malformed messages are dropped; a failed
// ingestion is requeued once.
func (c *Consumer) Handle(ctx context.Context, body []byte, redelivered bool) Disposition {
	payload := &schema.InboundMessage{}
	if err := payload.Unmarshal(body); err != nil {
		c.log.Error(ctx, "Could not unmarshal inbound message.", logging.Entry("err", err))
		return Ack
	}

	msg, err := c.parser.Parse(payload.Raw, payload.ReceivedAt)
	if err != nil {
		c.log.Warning(ctx, "Inbound message dropped.", logging.Entry("reason", err.Error()))
		return Ack
	}

	result, err := c.service.Run(ctx, ingestmessage.Input{Message: msg})
	if err != nil {
		c.log.Error(
			ctx,
			"Could not ingest inbound message, service returned an error.",
			logging.Entry("messageID", msg.MessageID),
			logging.Entry("redelivered", redelivered),
			logging.Entry("err", err),
		)
		if redelivered {
			return Ack
		}
		return Requeue
	}

	c.log.Info(
		ctx,
		"Inbound message ingested.",
		logging.Entry("messageID", msg.MessageID),
		logging.Entry("duplicate", result.Duplicate),
	)
	return Ack
}
