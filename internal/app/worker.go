package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/luminahq/lumina/internal/config"
	"github.com/luminahq/lumina/internal/mq"
	"github.com/luminahq/lumina/internal/services"
	"github.com/luminahq/lumina/internal/worker"
)

// MustRunWorker consumes task events and runs the reminder sweeps.
// Blocks until an interrupt signal.
func MustRunWorker() {
	cfg := config.Global()

	notifications := services.NewNotificationService(globalLogger, globalPostgresPool, globalPublisher)
	w := worker.New(globalLogger, notifications)

	consumer, err := mq.NewConsumer(globalLogger, cfg.MQ.URL,
		"lumina.notifications", mq.RoutingKeyTaskCompleted)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to create consumer")
		panic(err)
	}
	defer consumer.Close()
	consumer.SetHandler(w.HandleTaskCompleted)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := consumer.StartConsuming(ctx)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("consumer stopped")
		}
	}()
	go w.RunReminderLoop(ctx)

	globalLogger.Info().Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().Msg("shutting down worker")
	cancel()
}
