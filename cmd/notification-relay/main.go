package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRelay)
	logger.Info("Starting notification relay")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notification relay")
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is not shared with the API process; the relay will only see its own data")
	}

	store := cli.MustOpenStore(context.Background(), cfg, logger)
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	relayCfg := services.DefaultRelayConfig()
	relayCfg.BatchSize = cfg.RelayBatchSize
	relayCfg.PollInterval = cfg.RelayInterval
	relay := services.NewNotificationRelay(store, amqpClient, relayCfg, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := relay.Stop(ctx); err != nil {
			logger.Error("Relay shutdown error", applog.FieldError, err)
		}
	})

	if err := relay.Start(ctx); err != nil {
		logger.Error("Failed to start notification relay", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Notification relay stopped")
}
