package inboundmessage

import (
	"context"
	"fmt"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/rabbitmq/schema"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type publisherChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, msg amqp091.Publishing) error
}

// RabbitMQ hands raw inbound messages over to the ingestion consumer
// through the default exchange.
type RabbitMQ struct {
	log     logging.Logger
	channel publisherChannel
	queue   string
}

func NewRabbitMQ(log logging.Logger, channel publisherChannel, queue string) *RabbitMQ {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	return &RabbitMQ{log: log, channel: channel, queue: queue}
}

func (p *RabbitMQ) Publish(ctx context.Context, raw []byte, receivedAt time.Time) error {
	msg := schema.InboundMessage{Raw: raw, ReceivedAt: receivedAt.UTC()}
	body, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("could not marshal inbound message: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, "", p.queue, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    receivedAt,
		Body:         body,
	})
	if err != nil {
		logging.Error(ctx, p.log, err, logging.Entry("queue", p.queue))
		return err
	}
	p.log.Info(
		ctx,
		"Inbound message has been published.",
		logging.Entry("queue", p.queue),
		logging.Entry("size", len(raw)),
	)
	return nil
}
