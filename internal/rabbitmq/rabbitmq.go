package rabbitmq

import (
	"context"
	"fmt"
	"snoozer/internal/core/domain/logging"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// reconnectDelay is the pause between reconnection attempts.
const reconnectDelay = 3 * time.Second

// Connection keeps an amqp.Connection alive. When the broker drops the
// connection it is redialed in the background.
type Connection struct {
	mu   sync.RWMutex
	conn *amqp.Connection
	url  string
	log  logging.Logger
}

func Dial(url string, log logging.Logger) (*Connection, error) {
	if log == nil {
		return nil, fmt.Errorf("log argument must not be nil")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	connection := &Connection{conn: conn, url: url, log: log}
	go connection.watch(conn)
	return connection, nil
}

func (c *Connection) current() *amqp.Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Connection) watch(conn *amqp.Connection) {
	ctx := context.Background()
	for {
		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok {
			c.log.Info(ctx, "RabbitMQ connection closed.")
			return
		}
		c.log.Warning(ctx, "RabbitMQ connection lost.", logging.Entry("reason", reason.Error()))

		for {
			time.Sleep(reconnectDelay)
			next, err := amqp.Dial(c.url)
			if err != nil {
				c.log.Error(ctx, "RabbitMQ reconnect failed.", logging.Entry("err", err))
				continue
			}
			c.mu.Lock()
			c.conn = next
			c.mu.Unlock()
			conn = next
			c.log.Info(ctx, "RabbitMQ reconnected.")
			break
		}
	}
}

func (c *Connection) Close() error {
	return c.current().Close()
}

// Channel opens a channel that is recreated whenever it is closed by the
// broker. Channels closed through Close stay closed.
func (c *Connection) Channel() (*Channel, error) {
	ch, err := c.current().Channel()
	if err != nil {
		return nil, err
	}

	channel := &Channel{ch: ch, log: c.log}
	go channel.watch(c)
	return channel, nil
}

type Channel struct {
	mu     sync.RWMutex
	ch     *amqp.Channel
	closed int32
	log    logging.Logger
}

func (ch *Channel) current() *amqp.Channel {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.ch
}

func (ch *Channel) watch(c *Connection) {
	ctx := context.Background()
	for {
		reason, ok := <-ch.current().NotifyClose(make(chan *amqp.Error, 1))
		if !ok || ch.IsClosed() {
			_ = ch.Close()
			return
		}
		ch.log.Warning(ctx, "RabbitMQ channel closed.", logging.Entry("reason", reason.Error()))

		for {
			time.Sleep(reconnectDelay)
			next, err := c.current().Channel()
			if err != nil {
				ch.log.Error(ctx, "RabbitMQ channel recreation failed.", logging.Entry("err", err))
				continue
			}
			ch.mu.Lock()
			ch.ch = next
			ch.mu.Unlock()
			ch.log.Info(ctx, "RabbitMQ channel recreated.")
			break
		}
	}
}

func (ch *Channel) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) == 1
}

func (ch *Channel) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return amqp.ErrClosed
	}
	return ch.current().Close()
}

// DeclareQueue declares a durable queue.
func (ch *Channel) DeclareQueue(name string) error {
	_, err := ch.current().QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (ch *Channel) Qos(prefetchCount int) error {
	return ch.current().Qos(prefetchCount, 0, false)
}

func (ch *Channel) PublishWithContext(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	return ch.current().PublishWithContext(ctx, exchange, key, false, false, msg)
}

// Consume returns deliveries that survive channel recreation. The returned
// channel is closed once ctx is done or the channel was closed through Close.
func (ch *Channel) Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	go func() {
		defer close(deliveries)
		for {
			d, err := ch.current().Consume(queue, "", false, false, false, false, nil)
			if err != nil {
				ch.log.Error(ctx, "Could not start consuming.", logging.Entry("queue", queue), logging.Entry("err", err))
			} else {
				for msg := range d {
					select {
					case deliveries <- msg:
					case <-ctx.Done():
						return
					}
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			if ch.IsClosed() {
				ch.log.Info(ctx, "Channel is closed, stop consuming.", logging.Entry("queue", queue))
				return
			}
		}
	}()

	return deliveries, nil
}
