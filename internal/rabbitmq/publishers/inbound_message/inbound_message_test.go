package inboundmessage

import (
	"context"
	"errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/rabbitmq/schema"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	keys     []string
	messages []amqp091.Publishing
	err      error
}

func (c *fakeChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	msg amqp091.Publishing,
) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.messages = append(c.messages, msg)
	return nil
}

func TestPublish(t *testing.T) {
	// Setup ---
	channel := &fakeChannel{}
	publisher := NewRabbitMQ(logging.NewFakeLogger(), channel, "snoozer.inbound")
	receivedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	raw := []byte("From: a@x.com\r\nTo: 2hours@snoozer.test\r\n\r\nbody")

	// Exercise ---
	err := publisher.Publish(context.Background(), raw, receivedAt)

	// Verify ---
	require := require.New(t)
	require.Nil(err)
	require.Equal([]string{"snoozer.inbound"}, channel.keys)
	require.Equal(amqp091.Persistent, channel.messages[0].DeliveryMode)

	msg := &schema.InboundMessage{}
	require.Nil(msg.Unmarshal(channel.messages[0].Body))
	require.Equal(raw, msg.Raw)
	require.True(msg.ReceivedAt.Equal(receivedAt))
}

func TestPublishError(t *testing.T) {
	// Setup ---
	channel := &fakeChannel{err: errors.New("channel closed")}
	log := logging.NewFakeLogger()
	publisher := NewRabbitMQ(log, channel, "snoozer.inbound")

	// Exercise ---
	err := publisher.Publish(context.Background(), []byte("raw"), time.Now())

	// Verify ---
	require.ErrorIs(t, err, channel.err)
}
