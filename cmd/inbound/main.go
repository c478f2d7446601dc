// Command inbound reads one raw RFC 5322 message from stdin and queues it for
// ingestion. It is meant to be used as an MTA pipe transport.
package main

import (
	"context"
	"io"
	"os"
	"snoozer/internal/app/deps"
	"snoozer/internal/core/domain/logging"
	inboundmessage "snoozer/internal/rabbitmq/publishers/inbound_message"
	"time"
)

const (
	MAX_MESSAGE_SIZE = 25 << 20
	// EX_TEMPFAIL asks the MTA to retry delivery later.
	EX_TEMPFAIL = 75
)

func main() {
	os.Exit(run())
}

func run() int {
	deps, shutdownDeps := deps.InitDeps()
	defer shutdownDeps()
	log := deps.Logger

	raw, err := io.ReadAll(io.LimitReader(os.Stdin, MAX_MESSAGE_SIZE))
	if err != nil {
		log.Error(context.Background(), "Could not read message from stdin.", logging.Entry("err", err))
		return EX_TEMPFAIL
	}
	if len(raw) == 0 {
		log.Warning(context.Background(), "Empty message on stdin, skip.")
		return 0
	}

	channel, err := deps.InboundChannel()
	if err != nil {
		log.Error(context.Background(), "Could not open inbound channel.", logging.Entry("err", err))
		return EX_TEMPFAIL
	}
	defer channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	publisher := inboundmessage.NewRabbitMQ(log, channel, deps.Config.RabbitmqInboundQueue)
	if err := publisher.Publish(ctx, raw, deps.Now()); err != nil {
		return EX_TEMPFAIL
	}
	return 0
}
