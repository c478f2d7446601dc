package main

import (
	"context"
	"os"
	"os/signal"
	"snoozer/internal/app/deps"
	"snoozer/internal/app/services"
	"snoozer/internal/core/domain/logging"
	runpass "snoozer/internal/core/services/run_pass"
	"syscall"

	"github.com/robfig/cron/v3"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	log := deps.Logger
	defer shutdownDeps()

	services := services.InitServices(deps)

	pass := func() {
		log.Info(context.Background(), "Launching lifecycle pass.")
		result, err := services.RunPass.Run(context.Background(), runpass.Input{Limit: deps.Config.PassBatchSize})
		if err != nil {
			log.Error(context.Background(), "Lifecycle pass returned an error.", logging.Entry("err", err))
			return
		}
		log.Info(
			context.Background(),
			"Lifecycle pass finished.",
			logging.Entry("skipped", result.Skipped),
			logging.Entry("ingested", result.Ingested.Stored),
			logging.Entry("classified", result.Classified.Classified),
			logging.Entry("fired", result.Fired.Fired),
		)
	}

	if deps.Config.SchedulerRunOnce {
		pass()
		return
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(deps.Config.SchedulerSpec, pass); err != nil {
		log.Error(
			context.Background(),
			"Invalid scheduler spec.",
			logging.Entry("spec", deps.Config.SchedulerSpec),
			logging.Entry("err", err),
		)
		return
	}

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(
		context.Background(),
		"Starting periodic lifecycle scheduler.",
		logging.Entry("spec", deps.Config.SchedulerSpec),
	)
	scheduler.Start()

	<-stopCh
	log.Info(context.Background(), "Stopping periodic lifecycle scheduler.")
	<-scheduler.Stop().Done()
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
