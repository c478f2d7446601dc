package consumers

import (
	"context"
	"snoozer/internal/app/deps"
	"snoozer/internal/app/services"
	dl "snoozer/internal/core/domain/logging"
	inboundmessage "snoozer/internal/rabbitmq/consumers/inbound_message"
)

func initInboundMessageConsumer(ctx context.Context, deps *deps.Deps, services *services.Services) func() {
	rabbitmqChannel, err := deps.InboundChannel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}
	if err := rabbitmqChannel.Qos(1); err != nil {
		deps.Logger.Error(context.Background(), "Could not set RabbitMQ prefetch.", dl.Entry("err", err))
		panic(err)
	}

	queue := deps.Config.RabbitmqInboundQueue
	inboundMessageConsumer := inboundmessage.New(
		deps.Logger,
		rabbitmqChannel,
		queue,
		deps.InboundParser,
		services.IngestMessage,
	)
	if err = inboundMessageConsumer.Consume(ctx); err != nil {
		deps.Logger.Error(
			context.Background(),
			"Could not start RabbitMQ consuming.",
			dl.Entry("err", err),
			dl.Entry("queue", queue),
		)
		panic(err)
	}

	deps.Logger.Info(context.Background(), "Consumer has started.", dl.Entry("queue", queue))
	return func() { rabbitmqChannel.Close() }
}

func InitConsumers(deps *deps.Deps, services *services.Services) func() {
	ctx, cancel := context.WithCancel(context.Background())
	shutdownInboundMessageConsumer := initInboundMessageConsumer(ctx, deps, services)

	return func() {
		cancel()
		shutdownInboundMessageConsumer()
	}
}
